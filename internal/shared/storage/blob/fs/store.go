package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docsight-backend/internal/shared/storage/blob"
	"docsight-backend/internal/shared/util"
)

// Store implements blob.Store on a local directory. It stands in for the
// remote tier in dev and tests; keys stay (documentID, fileName) addressed.
type Store struct {
	baseDir string
}

// New creates a directory-backed blob store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes the reader to disk under the document's namespace. Unlike the
// S3 store there is no object metadata here, so the content type is not
// persisted; responses take it from the document record.
func (s *Store) Put(ctx context.Context, documentID, fileName, _ string, r io.Reader) (string, error) {
	remoteKey, err := objectKey(documentID, fileName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(remoteKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write body: %w", err)
	}
	return remoteKey, nil
}

// Get opens a stored object for reading.
func (s *Store) Get(ctx context.Context, documentID, fileName string) (io.ReadCloser, error) {
	remoteKey, err := objectKey(documentID, fileName)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(remoteKey)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, documentID, fileName string) error {
	remoteKey, err := objectKey(documentID, fileName)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(remoteKey)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func objectKey(documentID, fileName string) (string, error) {
	id := strings.TrimSpace(documentID)
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid document id")
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return id + "/" + sanitized, nil
}

var _ blob.Store = (*Store)(nil)
