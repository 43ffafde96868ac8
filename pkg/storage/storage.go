// Package storage defines the key-value collaborator the store persists
// snapshots through, plus an in-memory implementation.
//
// Implementations live in subpackages:
//
//	filestore   one file per key, atomic renames
//	sqlitestore modernc.org/sqlite table
//	pgstore     PostgreSQL via pgx
//	s3store     one object per key under a prefix
//	redisstore  GET/SET with optional expiry
//	cachestore  in-process read-through tier over any Storage
//
// The drivers subpackage selects one of them from configuration.
package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrKeyRequired is returned when a blank key is passed to a collaborator.
	ErrKeyRequired = errors.New("storage: key is required")
	// ErrUnknownDriver is returned by driver selection for unsupported names.
	ErrUnknownDriver = errors.New("storage: unknown driver")
)

// Storage is a string key-value store. Absence is reported as ok=false, not
// as an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
}

// Closer is implemented by collaborators holding connections or files.
type Closer interface {
	Close() error
}

// NormalizeKey trims key and rejects blank keys.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrKeyRequired
	}
	return key, nil
}
