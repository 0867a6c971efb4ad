package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create appends a new extraction record.
func (r *PGRepo) Create(ctx context.Context, rec Extraction) error {
	const query = `
INSERT INTO extractions (id, document_id, summary, insights, created_at)
VALUES ($1, $2, $3, $4, $5)`

	insights, err := json.Marshal(rec.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, rec.ID, rec.DocumentID, rec.Summary, insights, rec.CreatedAt)
	return err
}

// ListByDocument returns a document's records, newest first.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Extraction, error) {
	const query = `
SELECT id, document_id, summary, insights, created_at
FROM extractions
WHERE document_id = $1
ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Extraction, 0)
	for rows.Next() {
		var rec Extraction
		var insights []byte
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.Summary, &insights, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(insights) > 0 {
			if err := json.Unmarshal(insights, &rec.Insights); err != nil {
				return nil, fmt.Errorf("decode insights: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all records for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM extractions WHERE document_id = $1`, documentID)
	return err
}
