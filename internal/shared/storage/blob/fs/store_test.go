package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsight-backend/internal/shared/storage/blob"
)

func TestPutGetDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	key, err := store.Put(ctx, "doc-1", "report.pdf", "application/pdf", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "doc-1/report.pdf" {
		t.Fatalf("unexpected remote key %q", key)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "doc-1"))
	if err != nil {
		t.Fatalf("read object dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("object dir holds %d entries, want the object only", len(entries))
	}

	rc, err := store.Get(ctx, "doc-1", "report.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("expected round-tripped payload, got %q", data)
	}

	if err := store.Delete(ctx, "doc-1", "report.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "doc-1", "report.pdf"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected blob.ErrNotFound after delete, got %v", err)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Get(context.Background(), "doc-x", "nope.pdf"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected blob.ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Delete(context.Background(), "doc-x", "nope.pdf"); err != nil {
		t.Fatalf("expected nil for missing delete, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Put(context.Background(), "../doc", "f.pdf", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected invalid document id")
	}
	if _, err := store.Put(context.Background(), "doc-1", "../../f.pdf", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected invalid file name")
	}
}
