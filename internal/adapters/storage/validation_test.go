package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateContentType(t *testing.T) {
	for _, ct := range []string{"text/csv; charset=utf-8", "application/json", ContentTypeXLSX} {
		if err := ValidateContentType(ct); err != nil {
			t.Fatalf("expected %q to be allowed: %v", ct, err)
		}
	}
	if err := ValidateContentType("image/png"); err == nil {
		t.Fatal("expected image/png to be rejected")
	}
}

func TestValidateFileSize(t *testing.T) {
	s := &MinIOService{maxFileSize: 10}
	if err := s.ValidateFileSize(0); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := s.ValidateFileSize(11); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := s.ValidateFileSize(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	key := ObjectKey("org-1/deals", "deals-2026-01-02.csv", id)
	if key != "org-1/deals/deals-2026-01-02_0f8fad5b.csv" {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(ObjectKey("", "a.json", id), "//") {
		t.Fatal("expected a clean key without folder")
	}
}
