package staging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStageWritesAndSniffs(t *testing.T) {
	store := New(t.TempDir())

	payload := "%PDF-1.4 fake pdf body"
	staged, err := store.Stage(context.Background(), "paper.pdf", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if staged.SizeBytes != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), staged.SizeBytes)
	}
	if !strings.HasPrefix(staged.MimeType, "application/pdf") {
		t.Fatalf("expected pdf mime sniff, got %q", staged.MimeType)
	}
	if !strings.HasSuffix(staged.Path, "_paper.pdf") {
		t.Fatalf("expected random prefix before original name, got %q", staged.Path)
	}

	rc, err := store.Open(staged.Path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != payload {
		t.Fatalf("round trip mismatch: %q", data)
	}
}

func TestStageUniqueNames(t *testing.T) {
	store := New(t.TempDir())
	a, err := store.Stage(context.Background(), "same.pdf", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("stage a: %v", err)
	}
	b, err := store.Stage(context.Background(), "same.pdf", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("stage b: %v", err)
	}
	if a.Path == b.Path {
		t.Fatalf("expected distinct staged paths, both %q", a.Path)
	}
}

func TestStageTempNamedByDocument(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	path, err := store.StageTemp(context.Background(), "doc-9", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("stage temp: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "tmp_doc-9_") {
		t.Fatalf("expected document-scoped temp name, got %q", path)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err %v", err)
	}
}

func TestStageTempRejectsBadDocumentID(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.StageTemp(context.Background(), "../evil", strings.NewReader("x")); err == nil {
		t.Fatal("expected invalid document id")
	}
}

func TestRemoveOutsideBaseRejected(t *testing.T) {
	store := New(t.TempDir())
	other := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Remove(other); err == nil {
		t.Fatal("expected rejection for path outside staging dir")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Remove(filepath.Join(dir, "missing")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
