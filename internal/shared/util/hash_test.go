package util

import "testing"

func TestHashOwnerKeyStable(t *testing.T) {
	a := HashOwnerKey("owner-1")
	b := HashOwnerKey("owner-1")
	if a != b {
		t.Fatalf("expected stable hash, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashOwnerKey("owner-2") {
		t.Fatal("expected distinct owners to hash differently")
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatal("expected traversal rejection")
	}
	got, err := SanitizeFileName("dir/report 2024.pdf")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "dir_report 2024.pdf" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatal("expected empty name rejection")
	}
}
