package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, owner_id, original_file_name, mime_type, size_bytes, title, authors, published_at, local_path, remote_key, summary, insights, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    owner_id,
    original_file_name,
    mime_type,
    size_bytes,
    title,
    authors,
    published_at,
    local_path,
    remote_key,
    summary,
    insights,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	insights, err := marshalInsights(doc.Insights)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.OriginalFileName,
		doc.MimeType,
		doc.SizeBytes,
		nullString(doc.Title),
		nullString(doc.Authors),
		nullTimePtr(doc.PublishedAt),
		nullString(doc.LocalPath),
		nullString(doc.RemoteKey),
		nullString(doc.Summary),
		insights,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByOwner returns a page of the owner's documents, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, documentColumns)
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateStorage rewrites the storage tier fields of a document.
func (r *PGRepo) UpdateStorage(ctx context.Context, documentID, localPath, remoteKey string) error {
	const query = `UPDATE documents SET local_path = $2, remote_key = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID, nullString(localPath), nullString(remoteKey))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAnalysis rewrites metadata, summary and insights from doc.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET title = $2, authors = $3, published_at = $4, summary = $5, insights = $6
WHERE id = $1`

	insights, err := marshalInsights(doc.Insights)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		nullString(doc.Title),
		nullString(doc.Authors),
		nullTimePtr(doc.PublishedAt),
		nullString(doc.Summary),
		insights,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a document. Extraction rows cascade at the schema level.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ClaimGuest reassigns every document owned by guestOwnerID to ownerID and
// reports how many moved.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestOwnerID, ownerID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE documents SET owner_id = $1 WHERE owner_id = $2`, ownerID, guestOwnerID)
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(moved), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var title, authors, localPath, remoteKey, summary sql.NullString
	var publishedAt sql.NullTime
	var insights []byte

	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.OriginalFileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&title,
		&authors,
		&publishedAt,
		&localPath,
		&remoteKey,
		&summary,
		&insights,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.Title = title.String
	doc.Authors = authors.String
	doc.LocalPath = localPath.String
	doc.RemoteKey = remoteKey.String
	doc.Summary = summary.String
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		doc.PublishedAt = &t
	}
	if len(insights) > 0 {
		if err := json.Unmarshal(insights, &doc.Insights); err != nil {
			return Document{}, fmt.Errorf("decode insights: %w", err)
		}
	}
	return doc, nil
}

func marshalInsights(insights []string) (any, error) {
	if insights == nil {
		return nil, nil
	}
	data, err := json.Marshal(insights)
	if err != nil {
		return nil, fmt.Errorf("encode insights: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
