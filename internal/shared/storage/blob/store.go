package blob

import (
	"context"
	"errors"
	"io"
)

// Store is the remote, durable object tier. Objects are addressed by the
// owning document's ID plus the original file name, never by a flat path.
type Store interface {
	Put(ctx context.Context, documentID, fileName, contentType string, r io.Reader) (remoteKey string, err error)
	Get(ctx context.Context, documentID, fileName string) (io.ReadCloser, error)
	Delete(ctx context.Context, documentID, fileName string) error
}

// ErrNotFound reports that the addressed object does not exist remotely.
// Transient failures are returned as-is and must not be mapped to this.
var ErrNotFound = errors.New("blob: object not found")
