// Package storagetest holds the behaviour every storage.Storage must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-statebox/pkg/storage"
)

// Factory builds a fresh, empty collaborator for one subtest.
type Factory func(t *testing.T) storage.Storage

// Run exercises round-trips, absence, overwrite and key validation.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key reports absence", func(t *testing.T) {
		s := factory(t)
		value, ok, err := s.GetItem(ctx, "missing")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok || value != "" {
			t.Fatalf("expected absence, got %q ok=%v", value, ok)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		s := factory(t)
		payload := `{"state":{"user":{"name":"Ada"}},"version":1,"timestamp":1700000000000}`
		if err := s.SetItem(ctx, "app_state", payload); err != nil {
			t.Fatalf("set: %v", err)
		}
		value, ok, err := s.GetItem(ctx, "app_state")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !ok || value != payload {
			t.Fatalf("expected %q, got %q ok=%v", payload, value, ok)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := factory(t)
		if err := s.SetItem(ctx, "k", "first"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.SetItem(ctx, "k", "second"); err != nil {
			t.Fatalf("set: %v", err)
		}
		value, ok, err := s.GetItem(ctx, "k")
		if err != nil || !ok || value != "second" {
			t.Fatalf("expected overwrite, got %q ok=%v err=%v", value, ok, err)
		}
	})

	t.Run("keys with separators", func(t *testing.T) {
		s := factory(t)
		key := "tenant/a b/app_state"
		if err := s.SetItem(ctx, key, "v"); err != nil {
			t.Fatalf("set: %v", err)
		}
		value, ok, err := s.GetItem(ctx, key)
		if err != nil || !ok || value != "v" {
			t.Fatalf("expected %q round trip, got %q ok=%v err=%v", key, value, ok, err)
		}
	})

	t.Run("blank key rejected", func(t *testing.T) {
		s := factory(t)
		if err := s.SetItem(ctx, " ", "v"); !errors.Is(err, storage.ErrKeyRequired) {
			t.Fatalf("expected ErrKeyRequired on set, got %v", err)
		}
		if _, _, err := s.GetItem(ctx, ""); !errors.Is(err, storage.ErrKeyRequired) {
			t.Fatalf("expected ErrKeyRequired on get, got %v", err)
		}
	})
}
