package statebox

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramTTL is used by NewProgramCache for non-positive TTLs.
const DefaultProgramTTL = 10 * time.Minute

type expiringProgramCache struct {
	items *cache.Cache
}

// NewProgramCache returns a ProgramCache whose entries expire after ttl
// without use.
func NewProgramCache(ttl time.Duration) ProgramCache {
	if ttl <= 0 {
		ttl = DefaultProgramTTL
	}
	return &expiringProgramCache{items: cache.New(ttl, 2*ttl)}
}

func (c *expiringProgramCache) Get(key string) (any, bool) {
	value, expiration, ok := c.items.GetWithExpiration(key)
	if !ok {
		return nil, false
	}
	// Refresh on hit so frequently used programs stay resident.
	if !expiration.IsZero() {
		c.items.SetDefault(key, value)
	}
	return value, true
}

func (c *expiringProgramCache) Set(key string, value any) {
	c.items.SetDefault(key, value)
}
