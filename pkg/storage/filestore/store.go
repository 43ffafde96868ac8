// Package filestore provides a storage.Storage keeping one file per key.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/natefinch/atomic"
)

const extension = ".json"

// Store writes each item to <dir>/<escaped key>.json. Writes go through a
// temporary file and rename, so readers never see a partial snapshot.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating the directory when missing.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("filestore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %q: %w", dir, err)
	}
	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// GetItem implements storage.Storage.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("filestore: read %q: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem implements storage.Storage.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, strings.NewReader(value)); err != nil {
		return fmt.Errorf("filestore: write %q: %w", key, err)
	}
	return nil
}

func (s *Store) pathFor(key string) (string, error) {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return "", err
	}
	// PathEscape leaves "." alone, so "." and ".." need their own spelling.
	name := url.PathEscape(key)
	switch name {
	case ".", "..":
		name = strings.ReplaceAll(name, ".", "%2E")
	}
	return filepath.Join(s.dir, name+extension), nil
}
