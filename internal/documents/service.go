package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsight-backend/internal/extract"
	"docsight-backend/internal/extractions"
	"docsight-backend/internal/insight"
	"docsight-backend/internal/shared/metrics"
	"docsight-backend/internal/shared/storage/blob"
	"docsight-backend/internal/shared/storage/content"
	"docsight-backend/internal/shared/storage/staging"
	"docsight-backend/internal/shared/telemetry"
)

// MaxUploadBytes is the upload size ceiling.
const MaxUploadBytes = 10 << 20 // 10MB

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedMimeTypes = map[string]bool{
	mimePDF:              true,
	mimeDOCX:             true,
	"application/msword": true,
}

// Extractor pulls raw text and metadata guesses out of a file on disk.
type Extractor interface {
	FromFile(ctx context.Context, path, mimeType, fileName string) (extract.Result, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path, mimeType, fileName string) (extract.Result, error)

func (f ExtractorFunc) FromFile(ctx context.Context, path, mimeType, fileName string) (extract.Result, error) {
	return f(ctx, path, mimeType, fileName)
}

// Service orchestrates upload, analysis and retrieval of documents across
// the two storage tiers. All collaborators are injected.
type Service struct {
	Repo        Repo
	Extractions extractions.Repo
	Blob        blob.Store
	Staging     *staging.Store
	Resolver    *content.Resolver
	Extractor   Extractor
	Insight     insight.Client
	Metrics     *metrics.Metrics
}

// Upload stages the stream locally, extracts initial metadata, records the
// document, then tries to promote the bytes to the blob store. Promotion
// failure is logged and tolerated: the document stays local-only and the
// call still succeeds.
func (s *Service) Upload(ctx context.Context, ownerID, fileName, contentType string, size int64, r io.Reader) (Document, error) {
	if strings.TrimSpace(fileName) == "" {
		s.observeUpload("invalid")
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if size <= 0 || size > MaxUploadBytes {
		s.observeUpload("invalid")
		return Document{}, fmt.Errorf("%w: file size must be between 1 byte and %d bytes", ErrInvalidInput, MaxUploadBytes)
	}
	if normalized := normalizeContentType(contentType); !allowedMimeTypes[normalized] {
		s.observeUpload("invalid")
		return Document{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, contentType)
	}

	staged, err := s.Staging.Stage(ctx, fileName, r)
	if err != nil {
		s.observeUpload("error")
		return Document{}, fmt.Errorf("stage upload: %w", err)
	}
	if staged.SizeBytes > MaxUploadBytes {
		s.Staging.RemoveQuiet(staged.Path)
		s.observeUpload("invalid")
		return Document{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxUploadBytes)
	}

	mimeType := resolveMimeType(contentType, staged.MimeType)
	ex, err := s.Extractor.FromFile(ctx, staged.Path, mimeType, fileName)
	if err != nil {
		s.Staging.RemoveQuiet(staged.Path)
		s.observeUpload("error")
		return Document{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	doc := Document{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		OriginalFileName: fileName,
		MimeType:         mimeType,
		SizeBytes:        staged.SizeBytes,
		Title:            strings.TrimSpace(ex.TitleGuess),
		Authors:          strings.TrimSpace(ex.AuthorsGuess),
		LocalPath:        staged.Path,
		CreatedAt:        time.Now().UTC(),
	}
	if parsed, ok := parsePublishedAt(ex.DateGuess); ok {
		doc.PublishedAt = &parsed
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		s.Staging.RemoveQuiet(staged.Path)
		s.observeUpload("error")
		return Document{}, fmt.Errorf("create document record: %w", err)
	}

	s.promote(ctx, &doc)
	s.observeUpload("success")
	return doc, nil
}

// promote copies the staged bytes into the blob store and, only once both
// the remote write and the record update are confirmed, removes the local
// copy. Any failure leaves the document local-only and is logged, never
// returned.
func (s *Service) promote(ctx context.Context, doc *Document) {
	f, err := s.Staging.Open(doc.LocalPath)
	if err != nil {
		s.logPromotionFailure(doc.ID, "open staged copy", err)
		return
	}
	remoteKey, err := s.Blob.Put(ctx, doc.ID, doc.OriginalFileName, doc.MimeType, f)
	f.Close()
	if err != nil {
		s.logPromotionFailure(doc.ID, "blob put", err)
		return
	}
	if err := s.Repo.UpdateStorage(ctx, doc.ID, "", remoteKey); err != nil {
		// The remote object exists but the record still says local; keep
		// the local copy so the record stays truthful.
		s.logPromotionFailure(doc.ID, "record update", err)
		return
	}
	s.Staging.RemoveQuiet(doc.LocalPath)
	doc.LocalPath = ""
	doc.RemoteKey = remoteKey
}

func (s *Service) logPromotionFailure(documentID, step string, err error) {
	telemetry.Error("documents.promotion_failed", map[string]any{
		"document_id": documentID,
		"step":        step,
		"error":       err.Error(),
	})
}

// Analyze resolves the document's bytes preferring the local tier, runs
// extraction and the analysis service, merges refined metadata and persists
// an extraction record. Any temp copy staged from the blob store is removed
// on every exit path.
func (s *Service) Analyze(ctx context.Context, ownerID, documentID string) (Document, error) {
	started := time.Now()
	doc, err := s.analyze(ctx, ownerID, documentID)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			outcome = "rejected"
		}
	}
	s.observeAnalysis(outcome, time.Since(started).Seconds())
	return doc, err
}

func (s *Service) analyze(ctx context.Context, ownerID, documentID string) (Document, error) {
	doc, err := s.getOwned(ctx, ownerID, documentID)
	if err != nil {
		return Document{}, err
	}

	resolved, err := s.Resolver.Resolve(ctx, refOf(doc), content.PreferLocal)
	if err != nil {
		if errors.Is(err, content.ErrUnavailable) {
			return Document{}, ErrContentUnavailable
		}
		return Document{}, fmt.Errorf("resolve content: %w", err)
	}
	defer resolved.Close()

	ex, err := s.Extractor.FromFile(ctx, resolved.Path, doc.MimeType, doc.OriginalFileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	result, err := s.Insight.Analyze(ctx, insight.Input{
		Text:  insight.TruncateText(ex.Text),
		Hints: hintsOf(doc),
	})
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	// The caller may have gone away during the external call; a partial
	// result must not be persisted.
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	mergeRefinement(&doc, result)

	if err := s.Repo.UpdateAnalysis(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("persist analysis: %w", err)
	}
	rec := extractions.Extraction{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Summary:    result.Summary,
		Insights:   append([]string(nil), result.Insights...),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Extractions.Create(ctx, rec); err != nil {
		return Document{}, fmt.Errorf("persist extraction record: %w", err)
	}
	return doc, nil
}

// mergeRefinement applies the analysis service's metadata: a refined value
// wins only when non-empty, and a refined date must pass validation or the
// previous stored date is kept.
func mergeRefinement(doc *Document, result insight.Result) {
	if title := strings.TrimSpace(result.Refined.Title); title != "" {
		doc.Title = title
	}
	if authors := strings.TrimSpace(result.Refined.Authors); authors != "" {
		doc.Authors = authors
	}
	if parsed, ok := parsePublishedAt(result.Refined.PublishedAt); ok {
		doc.PublishedAt = &parsed
	}
	doc.Summary = result.Summary
	doc.Insights = append([]string(nil), result.Insights...)
}

// DownloadResult is a resolved byte stream ready to serve. Close must be
// called when serving finishes.
type DownloadResult struct {
	Content  *content.Resolved
	FileName string
	MimeType string
	Source   content.Source
}

// Download resolves the document's bytes preferring the remote canonical
// copy, falling back to the local tier only on a confirmed remote not-found.
func (s *Service) Download(ctx context.Context, ownerID, documentID string) (DownloadResult, error) {
	doc, err := s.getOwned(ctx, ownerID, documentID)
	if err != nil {
		return DownloadResult{}, err
	}

	resolved, err := s.Resolver.Resolve(ctx, refOf(doc), content.PreferRemote)
	if err != nil {
		if errors.Is(err, content.ErrUnavailable) {
			return DownloadResult{}, ErrNotFound
		}
		return DownloadResult{}, fmt.Errorf("resolve content: %w", err)
	}

	s.observeDownload(string(resolved.Source))
	return DownloadResult{
		Content:  resolved,
		FileName: doc.OriginalFileName,
		MimeType: doc.MimeType,
		Source:   resolved.Source,
	}, nil
}

// Get returns a document owned by the requester.
func (s *Service) Get(ctx context.Context, ownerID, documentID string) (Document, error) {
	return s.getOwned(ctx, ownerID, documentID)
}

// List returns a page of the requester's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if ownerID == "" {
		return nil, errors.New("owner id required")
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// History returns the document's extraction records, newest first.
func (s *Service) History(ctx context.Context, ownerID, documentID string) ([]extractions.Extraction, error) {
	if _, err := s.getOwned(ctx, ownerID, documentID); err != nil {
		return nil, err
	}
	return s.Extractions.ListByDocument(ctx, documentID)
}

// Delete removes the document record, its extraction history, and the bytes
// in both storage tiers.
func (s *Service) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.getOwned(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	if doc.RemoteKey != "" {
		if err := s.Blob.Delete(ctx, doc.ID, doc.OriginalFileName); err != nil && !errors.Is(err, blob.ErrNotFound) {
			return fmt.Errorf("delete remote copy: %w", err)
		}
	}
	if doc.LocalPath != "" {
		if err := s.Staging.Remove(doc.LocalPath); err != nil {
			return fmt.Errorf("delete local copy: %w", err)
		}
	}
	if err := s.Extractions.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete extraction records: %w", err)
	}
	return s.Repo.Delete(ctx, documentID)
}

// DeleteAllForOwner removes every document owned by ownerID. Used by account
// deletion.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	for {
		docs, err := s.Repo.ListByOwner(ctx, ownerID, maxListLimit, 0)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		for _, doc := range docs {
			if err := s.Delete(ctx, ownerID, doc.ID); err != nil {
				return fmt.Errorf("delete document %s: %w", doc.ID, err)
			}
		}
	}
}

func (s *Service) getOwned(ctx context.Context, ownerID, documentID string) (Document, error) {
	if ownerID == "" || documentID == "" {
		return Document{}, ErrNotFound
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != ownerID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

func refOf(doc Document) content.Ref {
	return content.Ref{
		DocumentID: doc.ID,
		FileName:   doc.OriginalFileName,
		LocalPath:  doc.LocalPath,
		RemoteKey:  doc.RemoteKey,
	}
}

func hintsOf(doc Document) insight.Hints {
	h := insight.Hints{Title: doc.Title, Authors: doc.Authors}
	if doc.PublishedAt != nil {
		h.PublishedAt = doc.PublishedAt.Format("2006-01-02")
	}
	return h
}

func normalizeContentType(contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	return normalized
}

// resolveMimeType prefers the sniffed type over the declared one whenever
// the sniff identifies a supported format. Browsers often declare DOCX
// uploads as msword; the bytes sniff as zip, which only DOCX produces among
// the accepted types.
func resolveMimeType(declared, sniffed string) string {
	switch normalizeContentType(sniffed) {
	case mimePDF:
		return mimePDF
	case "application/zip":
		return mimeDOCX
	}
	return normalizeContentType(declared)
}

func (s *Service) observeUpload(outcome string) {
	if s.Metrics != nil {
		s.Metrics.ObserveUpload(outcome)
	}
}

func (s *Service) observeAnalysis(outcome string, seconds float64) {
	if s.Metrics != nil {
		s.Metrics.ObserveAnalysis(outcome, seconds)
	}
}

func (s *Service) observeDownload(tier string) {
	if s.Metrics != nil {
		s.Metrics.ObserveDownload(tier)
	}
}
