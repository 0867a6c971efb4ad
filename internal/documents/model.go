package documents

import "time"

// Document represents one uploaded file plus its current best-known metadata
// and latest analysis output. LocalPath and RemoteKey describe where the
// original bytes live; at least one must point at a readable copy.
type Document struct {
	ID               string
	OwnerID          string
	OriginalFileName string
	MimeType         string
	SizeBytes        int64

	Title       string
	Authors     string
	PublishedAt *time.Time

	// LocalPath is set while the bytes are staged locally and cleared once
	// they are promoted to the blob store and the staged copy is removed.
	LocalPath string
	// RemoteKey is set only after the bytes are confirmed written remotely.
	RemoteKey string

	Summary  string
	Insights []string

	CreatedAt time.Time
}
