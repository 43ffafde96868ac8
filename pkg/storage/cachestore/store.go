// Package cachestore layers an in-process cache over another
// storage.Storage. Reads are served from memory when possible and written
// back on a miss; writes go to the backend first and then to memory.
package cachestore

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL applies when New receives a non-positive ttl.
const DefaultTTL = 10 * time.Second

// Store is a read-through, write-through cache tier.
type Store struct {
	backend storage.Storage
	mem     *cache.Cache
}

// New wraps backend with a cache whose entries expire after ttl.
func New(backend storage.Storage, ttl time.Duration) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("cachestore: backend is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{backend: backend, mem: cache.New(ttl, 2*ttl)}, nil
}

// GetItem implements storage.Storage.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return "", false, err
	}
	if cached, ok := s.mem.Get(key); ok {
		return cached.(string), true, nil
	}
	value, ok, err := s.backend.GetItem(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	s.mem.SetDefault(key, value)
	return value, true, nil
}

// SetItem implements storage.Storage. The cache is only updated once the
// backend accepted the write.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.backend.SetItem(ctx, key, value); err != nil {
		s.mem.Delete(key)
		return err
	}
	s.mem.SetDefault(key, value)
	return nil
}

// Invalidate drops key from the cache tier only.
func (s *Store) Invalidate(key string) {
	s.mem.Delete(key)
}

// Backend returns the wrapped storage.
func (s *Store) Backend() storage.Storage {
	return s.backend
}

// Close closes the backend when it holds resources.
func (s *Store) Close() error {
	s.mem.Flush()
	if closer, ok := s.backend.(storage.Closer); ok {
		return closer.Close()
	}
	return nil
}
