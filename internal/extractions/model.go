package extractions

import "time"

// Extraction is one completed analysis run against a document. Records are
// append-only history; they are never mutated after creation.
type Extraction struct {
	ID         string
	DocumentID string
	Summary    string
	Insights   []string
	CreatedAt  time.Time
}
