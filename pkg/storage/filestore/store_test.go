package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/goliatone/go-statebox/pkg/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		store, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return store
	})
}

func TestStoreEscapesKeysIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"../escape", "..", "nested/key"} {
		if err := store.SetItem(ctx, key, "v"); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 files inside %s, got %d", dir, len(entries))
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("unexpected directory %q", entry.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Fatalf("key escaped the store directory")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Dir() != dir {
		t.Fatalf("expected dir %q, got %q", dir, store.Dir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
}

func TestGetItemHonoursCancelledContext(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := store.GetItem(ctx, "k"); err == nil {
		t.Fatalf("expected context error")
	}
}
