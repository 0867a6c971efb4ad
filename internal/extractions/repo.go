package extractions

import "context"

// Repo defines persistence operations for extraction records.
type Repo interface {
	Create(ctx context.Context, rec Extraction) error
	ListByDocument(ctx context.Context, documentID string) ([]Extraction, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
