package staging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docsight-backend/internal/shared/telemetry"
	"docsight-backend/internal/shared/util"
)

// Store is the filesystem scratch tier: it holds uploads that have not been
// promoted to the blob store yet, and per-call temporary copies staged from
// the blob store for processing.
type Store struct {
	baseDir string
}

// New creates a staging store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Staged describes a file written into the staging area.
type Staged struct {
	Path      string
	SizeBytes int64
	MimeType  string
}

// Stage writes the stream to a collision-resistant path derived from the
// original name plus a random token, sniffing the mime type from the first
// 512 bytes.
func (s *Store) Stage(ctx context.Context, fileName string, r io.Reader) (Staged, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Staged{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Staged{}, err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return Staged{}, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, fmt.Sprintf("%s_%s", randomToken(), sanitized))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return Staged{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		os.Remove(fullPath)
		return Staged{}, fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			os.Remove(fullPath)
			return Staged{}, fmt.Errorf("write sniff: %w", err)
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(fullPath)
		return Staged{}, fmt.Errorf("write body: %w", err)
	}
	size += written

	return Staged{Path: fullPath, SizeBytes: size, MimeType: mimeType}, nil
}

// StageTemp writes a per-call temporary copy, named so concurrent calls on
// different documents cannot collide. Callers own removal.
func (s *Store) StageTemp(ctx context.Context, documentID string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	id := strings.TrimSpace(documentID)
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid document id")
	}

	fullPath := filepath.Join(s.baseDir, fmt.Sprintf("tmp_%s_%s", id, randomToken()))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("open temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write temp body: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return fullPath, nil
}

// Open opens a staged file for reading.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Exists reports whether a staged file is present and readable.
func (s *Store) Exists(path string) bool {
	if s.checkPath(path) != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes a staged file.
func (s *Store) Remove(path string) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveQuiet deletes a staged file, logging instead of failing. Meant for
// scope-exit cleanup paths where the original error must win.
func (s *Store) RemoveQuiet(path string) {
	if path == "" {
		return
	}
	if err := s.Remove(path); err != nil {
		telemetry.Error("staging.cleanup_failed", map[string]any{
			"path": path,
			"err":  err.Error(),
		})
	}
}

func (s *Store) checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty staging path")
	}
	clean := filepath.Clean(path)
	base := filepath.Clean(s.baseDir)
	if clean != base && !strings.HasPrefix(clean, base+string(filepath.Separator)) {
		return fmt.Errorf("path outside staging dir")
	}
	return nil
}

func randomToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
