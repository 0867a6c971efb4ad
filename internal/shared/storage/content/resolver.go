package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"docsight-backend/internal/shared/storage/blob"
	"docsight-backend/internal/shared/storage/staging"
)

// Order is the tier preference for resolving a document's bytes.
type Order int

const (
	// PreferLocal uses the staged local copy when present and only then
	// falls back to the blob store. Analysis uses this: least I/O wins.
	PreferLocal Order = iota
	// PreferRemote tries the blob store first and falls back to the local
	// copy only on a remote not-found. Download uses this: the durable
	// canonical copy wins when both tiers hold the file.
	PreferRemote
)

// Source identifies which tier served the bytes.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Ref carries the storage fields of a document needed for resolution.
type Ref struct {
	DocumentID string
	FileName   string
	LocalPath  string
	RemoteKey  string
}

// ErrUnavailable reports that neither tier holds a readable copy.
var ErrUnavailable = errors.New("content: bytes unavailable in any storage tier")

// Resolver locates a document's bytes across the two storage tiers. Analyze
// and Download share this single implementation so their fallback rules
// cannot drift apart.
type Resolver struct {
	Blob    blob.Store
	Staging *staging.Store
}

// Resolved is the located content. Close must be called on every exit path:
// it releases the reader and deletes any temp copy staged for this call.
type Resolved struct {
	Source Source
	// Path is set when the bytes are on local disk (a resident staged file
	// or a per-call temp copy); empty for a streamed remote read.
	Path string

	rc      io.ReadCloser
	cleanup func()
}

// Read implements io.Reader over the resolved bytes.
func (r *Resolved) Read(p []byte) (int, error) {
	return r.rc.Read(p)
}

// Close releases the reader and removes any per-call staged copy.
func (r *Resolved) Close() error {
	err := r.rc.Close()
	if r.cleanup != nil {
		r.cleanup()
	}
	return err
}

// Resolve locates the bytes for ref in the given tier order.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, order Order) (*Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch order {
	case PreferRemote:
		return r.resolveRemoteFirst(ctx, ref)
	default:
		return r.resolveLocalFirst(ctx, ref)
	}
}

func (r *Resolver) resolveLocalFirst(ctx context.Context, ref Ref) (*Resolved, error) {
	if ref.LocalPath != "" && r.Staging.Exists(ref.LocalPath) {
		rc, err := r.Staging.Open(ref.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open local copy: %w", err)
		}
		return &Resolved{Source: SourceLocal, Path: ref.LocalPath, rc: rc}, nil
	}

	if ref.RemoteKey != "" {
		body, err := r.Blob.Get(ctx, ref.DocumentID, ref.FileName)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return nil, ErrUnavailable
			}
			return nil, fmt.Errorf("fetch remote copy: %w", err)
		}
		defer body.Close()

		tempPath, err := r.Staging.StageTemp(ctx, ref.DocumentID, body)
		if err != nil {
			return nil, fmt.Errorf("stage remote copy: %w", err)
		}
		rc, err := r.Staging.Open(tempPath)
		if err != nil {
			r.Staging.RemoveQuiet(tempPath)
			return nil, fmt.Errorf("open staged copy: %w", err)
		}
		cleanup := func() { r.Staging.RemoveQuiet(tempPath) }
		return &Resolved{Source: SourceRemote, Path: tempPath, rc: rc, cleanup: cleanup}, nil
	}

	return nil, ErrUnavailable
}

func (r *Resolver) resolveRemoteFirst(ctx context.Context, ref Ref) (*Resolved, error) {
	if ref.RemoteKey != "" {
		body, err := r.Blob.Get(ctx, ref.DocumentID, ref.FileName)
		if err == nil {
			return &Resolved{Source: SourceRemote, rc: body}, nil
		}
		// Only a confirmed remote not-found may fall through to the local
		// tier; transient errors surface so callers can retry.
		if !errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("fetch remote copy: %w", err)
		}
	}

	if ref.LocalPath != "" && r.Staging.Exists(ref.LocalPath) {
		rc, err := r.Staging.Open(ref.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open local copy: %w", err)
		}
		return &Resolved{Source: SourceLocal, Path: ref.LocalPath, rc: rc}, nil
	}

	return nil, ErrUnavailable
}
