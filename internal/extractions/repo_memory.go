package extractions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Extraction // documentId -> records
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Extraction)}
}

// Create appends a new extraction record.
func (r *MemoryRepo) Create(ctx context.Context, rec Extraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Insights = append([]string(nil), rec.Insights...)
	r.data[rec.DocumentID] = append(r.data[rec.DocumentID], rec)
	return nil
}

// ListByDocument returns a document's records, newest first.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.data[documentID]
	out := make([]Extraction, 0, len(recs))
	for _, rec := range recs {
		rec.Insights = append([]string(nil), rec.Insights...)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteByDocument removes all records for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}
