// Package tiers defines the storage tier contract the cache engine is built
// on. A tier is a single backing store (in-memory, redis, sqlite, postgres)
// holding its own copies of cache envelopes; tiers never share state.
package tiers

import (
	"context"
	"time"
)

// Tier is the uniform contract over a single storage backend. Read reports
// absence through the found flag, never through an error: a missing entry
// is an ordinary miss, not a failure.
type Tier interface {
	// Name identifies the tier for logging and stats.
	Name() string

	// Read returns the raw envelope stored under key, if any.
	Read(ctx context.Context, key string) (value []byte, found bool, err error)

	// Write stores the raw envelope under key. The ttl is a hint for tiers
	// with native expiry; tiers without it persist the value until removed.
	Write(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Remove deletes the entry under key and reports whether anything was
	// actually removed. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) (removed bool, err error)
}

// Flusher is implemented by tiers that can drop all entries wholesale.
type Flusher interface {
	FlushAll(ctx context.Context) error
}

// Enumerator is implemented by tiers that support prefix enumeration, which
// lets clear operations remove keys the fixed namespace registry does not
// know about.
type Enumerator interface {
	RemovePrefix(ctx context.Context, prefix string) (removed int, err error)
}

// Reclaimer is implemented by tiers that record expiry deadlines and can
// delete every entry past its deadline in a single pass, including entries
// the fixed namespace registry cannot name.
type Reclaimer interface {
	RemoveExpired(ctx context.Context, now time.Time) (removed int, err error)
}
