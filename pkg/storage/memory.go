package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is a Storage kept in process memory. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory returns an empty Memory storage.
func NewMemory() *Memory {
	return &Memory{items: map[string]string{}}
}

// GetItem implements Storage.
func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	key, err := NormalizeKey(key)
	if err != nil {
		return "", false, err
	}
	m.mu.RLock()
	value, ok := m.items[key]
	m.mu.RUnlock()
	return value, ok, nil
}

// SetItem implements Storage.
func (m *Memory) SetItem(_ context.Context, key, value string) error {
	key, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are ignored.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Keys lists stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
