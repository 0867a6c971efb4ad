package documents

import (
	"time"

	"docsight-backend/internal/extractions"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID  string     `json:"documentId"`
	FileName    string     `json:"fileName"`
	MimeType    string     `json:"mimeType"`
	SizeBytes   int64      `json:"sizeBytes"`
	Title       *string    `json:"title"`
	Authors     *string    `json:"authors"`
	PublishedAt *time.Time `json:"publishedAt"`
	Summary     *string    `json:"summary"`
	Insights    []string   `json:"insights"`
	StorageTier string     `json:"storageTier"`
	UploadedAt  time.Time  `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	tier := "local"
	if doc.RemoteKey != "" {
		tier = "remote"
	}
	return DocumentResponse{
		DocumentID:  doc.ID,
		FileName:    doc.OriginalFileName,
		MimeType:    doc.MimeType,
		SizeBytes:   doc.SizeBytes,
		Title:       optional(doc.Title),
		Authors:     optional(doc.Authors),
		PublishedAt: doc.PublishedAt,
		Summary:     optional(doc.Summary),
		Insights:    doc.Insights,
		StorageTier: tier,
		UploadedAt:  doc.CreatedAt,
	}
}

// ExtractionResponse is the outward-facing representation of one analysis
// history record.
type ExtractionResponse struct {
	ExtractionID string    `json:"extractionId"`
	DocumentID   string    `json:"documentId"`
	Summary      string    `json:"summary"`
	Insights     []string  `json:"insights"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toExtractionResponse(rec extractions.Extraction) ExtractionResponse {
	return ExtractionResponse{
		ExtractionID: rec.ID,
		DocumentID:   rec.DocumentID,
		Summary:      rec.Summary,
		Insights:     rec.Insights,
		CreatedAt:    rec.CreatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
