package handlers

import (
	"strings"
	"testing"
)

func TestSafeDeleteUploadRefusesTraversal(t *testing.T) {
	cases := []string{
		"/public/uploads/../../etc/passwd",
		"/etc/passwd",
		"/public/data.db",
		"uploads/../main.go",
	}
	for _, p := range cases {
		err := safeDeleteUpload(p)
		if err == nil || !strings.Contains(err.Error(), "refusing to delete") {
			t.Fatalf("path %q should be refused, got %v", p, err)
		}
	}
}

func TestSafeDeleteUploadIgnoresEmptyAndMissing(t *testing.T) {
	if err := safeDeleteUpload("   "); err != nil {
		t.Fatalf("blank path should be a no-op, got %v", err)
	}
	if err := safeDeleteUpload("/public/uploads/does-not-exist.png"); err != nil {
		t.Fatalf("missing file should be a no-op, got %v", err)
	}
}
