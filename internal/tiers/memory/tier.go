// Package memory implements the in-memory storage tier on top of
// patrickmn/go-cache.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const tierName = "in-memory"

// Tier is the in-memory storage tier. go-cache handles per-entry expiry and
// background cleanup; the cache engine still carries its own envelope
// metadata so expiry semantics stay uniform across tiers.
type Tier struct {
	cache *gocache.Cache
}

// New creates an in-memory tier. cleanupInterval controls how often go-cache
// reaps natively expired items.
func New(defaultTTL, cleanupInterval time.Duration) *Tier {
	return &Tier{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (t *Tier) Name() string {
	return tierName
}

func (t *Tier) Read(ctx context.Context, key string) ([]byte, bool, error) {
	value, found := t.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		// Foreign entry under our key; treat as a miss.
		return nil, false, nil
	}
	return raw, true, nil
}

func (t *Tier) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	t.cache.Set(key, value, ttl)
	return nil
}

func (t *Tier) Remove(ctx context.Context, key string) (bool, error) {
	if _, found := t.cache.Get(key); !found {
		return false, nil
	}
	t.cache.Delete(key)
	return true, nil
}

// FlushAll drops every entry in the tier.
func (t *Tier) FlushAll(ctx context.Context) error {
	t.cache.Flush()
	return nil
}
