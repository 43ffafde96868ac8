// Package drivers opens a storage.Storage by name, optionally wrapped in the
// in-process cache tier.
package drivers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/goliatone/go-statebox/pkg/storage/cachestore"
	"github.com/goliatone/go-statebox/pkg/storage/filestore"
	"github.com/goliatone/go-statebox/pkg/storage/pgstore"
	"github.com/goliatone/go-statebox/pkg/storage/redisstore"
	"github.com/goliatone/go-statebox/pkg/storage/s3store"
	"github.com/goliatone/go-statebox/pkg/storage/sqlitestore"
)

// EnvPrefix prefixes every variable read by OpenFromEnv.
const EnvPrefix = "STATEBOX_STORAGE_"

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverRedis    = "redis"
)

// Config selects and configures a driver. Field tags are relative to
// EnvPrefix, so Driver reads STATEBOX_STORAGE_DRIVER.
type Config struct {
	Driver   string        `env:"DRIVER" envDefault:"memory"`
	CacheTTL time.Duration `env:"CACHE_TTL"`

	FileDir     string `env:"FILE_DIR" envDefault:".statebox"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"statebox.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	S3    S3Config           `envPrefix:"S3_"`
	Redis redisstore.Options `envPrefix:"REDIS_"`
}

// S3Config is the environment-facing subset of s3store.Config. Credentials
// come from the default AWS chain (AWS_ACCESS_KEY_ID and friends).
type S3Config struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Prefix    string `env:"PREFIX"`
	Endpoint  string `env:"ENDPOINT"`
	PathStyle bool   `env:"PATH_STYLE"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("drivers: parse env: %w", err)
	}
	return cfg, nil
}

// OpenFromEnv is LoadConfig followed by Open.
func OpenFromEnv(ctx context.Context) (storage.Storage, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg)
}

// Open builds the storage named by cfg.Driver. A positive CacheTTL wraps the
// result in cachestore.
func Open(ctx context.Context, cfg Config) (storage.Storage, error) {
	base, err := openBase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		return base, nil
	}
	cached, err := cachestore.New(base, cfg.CacheTTL)
	if err != nil {
		closeQuietly(base)
		return nil, err
	}
	return cached, nil
}

func openBase(ctx context.Context, cfg Config) (storage.Storage, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", DriverMemory:
		return storage.NewMemory(), nil
	case DriverFile:
		return filestore.New(cfg.FileDir)
	case DriverSQLite:
		return sqlitestore.Open(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return pgstore.Open(ctx, cfg.PostgresDSN)
	case DriverS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case DriverRedis:
		return redisstore.New(cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, cfg.Driver)
	}
}

// Close releases resources held by s, if any.
func Close(s storage.Storage) error {
	if closer, ok := s.(storage.Closer); ok {
		return closer.Close()
	}
	return nil
}

func closeQuietly(s storage.Storage) {
	_ = Close(s)
}
