package util

import (
	"strings"
	"testing"
)

func TestHashUserKeyStable(t *testing.T) {
	a := HashUserKey("guest:abc")
	b := HashUserKey("guest:abc")
	if a != b {
		t.Fatalf("expected stable hash, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatal("expected traversal rejection")
	}
	got, err := SanitizeFileName("reports/scan.pdf")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if strings.ContainsAny(got, "/\\") {
		t.Fatalf("separators not removed: %s", got)
	}
}
