package documents

import "context"

// Repo defines persistence operations for documents. Ownership checks are
// the service's concern; reads here are by ID or by owner scope.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	// UpdateStorage rewrites the storage tier fields. Empty strings persist
	// as null.
	UpdateStorage(ctx context.Context, documentID, localPath, remoteKey string) error
	// UpdateAnalysis rewrites the metadata, summary and insights fields from
	// doc. Storage fields are untouched.
	UpdateAnalysis(ctx context.Context, doc Document) error
	Delete(ctx context.Context, documentID string) error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// clampPage bounds a page request. A non-positive limit means the default
// page size, everywhere a page is requested.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
