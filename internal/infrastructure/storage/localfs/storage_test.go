package localfs

import (
	"context"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := s.Save(ctx, "doc-1", "hello content"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "hello content" {
		t.Fatalf("Load = %q", got)
	}
}

func TestLoadMissingKeyFails(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Load(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "a/b"} {
		if err := s.Save(context.Background(), key, "x"); err == nil {
			t.Errorf("key %q accepted, want rejection", key)
		}
	}
}
