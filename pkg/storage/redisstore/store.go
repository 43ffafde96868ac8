// Package redisstore provides a Redis-backed storage.Storage.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goliatone/go-statebox/pkg/storage"
)

// Options configures the Redis client. Setting SentinelAddrs switches to a
// failover client for MasterName.
type Options struct {
	Addr          string        `env:"ADDR" envDefault:"localhost:6379"`
	Password      string        `env:"PASSWORD"`
	DB            int           `env:"DB"`
	Prefix        string        `env:"PREFIX"`
	TTL           time.Duration `env:"TTL"`
	MasterName    string        `env:"MASTER_NAME" envDefault:"mymaster"`
	SentinelAddrs []string      `env:"SENTINEL_ADDRS" envSeparator:","`
}

// Store keeps each item under <prefix><key>. A zero TTL stores without
// expiry.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

// New dials Redis (or Sentinel) from opts. Connections are lazy; call Ping
// to verify reachability.
func New(opts Options) (*Store, error) {
	var client redis.UniversalClient
	if len(opts.SentinelAddrs) > 0 {
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       opts.MasterName,
			SentinelAddrs:    opts.SentinelAddrs,
			SentinelPassword: opts.Password,
			Password:         opts.Password,
			DB:               opts.DB,
		})
	} else {
		addr := strings.TrimSpace(opts.Addr)
		if addr == "" {
			return nil, fmt.Errorf("redisstore: addr is required")
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
	}
	store := NewWithClient(client, opts.Prefix, opts.TTL)
	store.owned = true
	return store, nil
}

// NewWithClient wraps an existing client. The caller keeps ownership.
func NewWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	return nil
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	if s == nil || s.client == nil || !s.owned {
		return nil
	}
	return s.client.Close()
}

// GetItem implements storage.Storage.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	redisKey, err := s.redisKey(key)
	if err != nil {
		return "", false, err
	}
	value, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: get %q: %w", redisKey, err)
	}
	return value, true, nil
}

// SetItem implements storage.Storage.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	redisKey, err := s.redisKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %q: %w", redisKey, err)
	}
	return nil
}

func (s *Store) redisKey(key string) (string, error) {
	key, err := storage.NormalizeKey(key)
	if err != nil {
		return "", err
	}
	return s.prefix + key, nil
}
