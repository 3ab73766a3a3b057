package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shoplist/internal/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(dir)

	if _, err := s.Get(ctx, "shopping-list-storage"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing file, got %v", err)
	}

	if err := s.Put(ctx, "shopping-list-storage", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "shopping-list-storage", []byte(`{"items":[1]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.Get(ctx, "shopping-list-storage")
	if err != nil || string(got) != `{"items":[1]}` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "shopping-list-storage.json" {
		t.Fatalf("expected a single data file, got %v", entries)
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := s.Put(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
