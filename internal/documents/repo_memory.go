package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo, used in dev mode and
// in tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = cloneDoc(doc)
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDoc(doc), nil
}

// ListByOwner returns a page of the owner's documents, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0)
	for _, doc := range r.data {
		if doc.OwnerID == ownerID {
			out = append(out, cloneDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Document{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// UpdateStorage rewrites the storage tier fields of a document.
func (r *MemoryRepo) UpdateStorage(ctx context.Context, documentID, localPath, remoteKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.LocalPath = localPath
	doc.RemoteKey = remoteKey
	r.data[documentID] = doc
	return nil
}

// UpdateAnalysis rewrites metadata, summary and insights from doc.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[doc.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = doc.Title
	stored.Authors = doc.Authors
	stored.PublishedAt = doc.PublishedAt
	stored.Summary = doc.Summary
	stored.Insights = append([]string(nil), doc.Insights...)
	r.data[doc.ID] = stored
	return nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.data, documentID)
	return nil
}

// ClaimGuest reassigns every document owned by guestOwnerID to ownerID and
// reports how many moved.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestOwnerID, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, doc := range r.data {
		if doc.OwnerID == guestOwnerID {
			doc.OwnerID = ownerID
			r.data[id] = doc
			moved++
		}
	}
	return moved, nil
}

func cloneDoc(doc Document) Document {
	doc.Insights = append([]string(nil), doc.Insights...)
	if doc.PublishedAt != nil {
		t := *doc.PublishedAt
		doc.PublishedAt = &t
	}
	return doc
}
