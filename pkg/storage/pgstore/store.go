// Package pgstore provides a PostgreSQL-backed storage.Storage using the pgx
// database/sql driver.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-statebox/pkg/storage"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	driverName = "pgx"
	// DefaultTable holds one row per storage key.
	DefaultTable = "statebox_kv"
)

var sqlOpen = sql.Open

// Store persists items in a PostgreSQL table.
type Store struct {
	db    *sql.DB
	table string
	owned bool
}

// Open connects to dsn, pings and ensures the table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("pgstore: dsn is required")
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open: %w", err)
	}
	store, err := New(ctx, db, DefaultTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// New wraps an existing handle. The caller keeps ownership of db unless the
// store came from Open.
func New(ctx context.Context, db *sql.DB, table string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pgstore: db is required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultTable
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, quoteIdent(table))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("pgstore: ensure table: %w", err)
	}
	return &Store{db: db, table: table}, nil
}

// Close closes the handle when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

// GetItem implements storage.Storage.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return "", false, err
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, quoteIdent(s.table))
	var value string
	err = s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pgstore: get %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem implements storage.Storage.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, quoteIdent(s.table))
	if _, err := s.db.ExecContext(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("pgstore: set %q: %w", key, err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
