package extractions

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateEncodesInsights(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := Extraction{
		ID:         "ext-1",
		DocumentID: "doc-1",
		Summary:    "a summary",
		Insights:   []string{"first", "second"},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO extractions").
		WithArgs(
			rec.ID,
			rec.DocumentID,
			rec.Summary,
			[]byte(`["first","second"]`),
			rec.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByDocumentDecodesInsights(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "document_id", "summary", "insights", "created_at"}).
		AddRow("ext-2", "doc-1", "later", []byte(`["b"]`), now).
		AddRow("ext-1", "doc-1", "earlier", []byte(`["a"]`), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, document_id, summary, insights, created_at").
		WithArgs("doc-1").
		WillReturnRows(rows)

	recs, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Summary != "later" || len(recs[0].Insights) != 1 || recs[0].Insights[0] != "b" {
		t.Errorf("first record = %+v", recs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
