// Package cache implements the TTL cache engine: envelope expiry semantics,
// content-addressed key derivation, an ordered fallback chain across storage
// tiers, the namespace sweep and cache statistics.
//
// The engine is an optimization layer, never a source of truth: every miss
// and every storage failure degrades to "recompute the artifact directly".
// It holds no mutable state beyond its tier handles, so a single instance is
// safe for concurrent use; construct exactly one and pass it to callers.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"feedcache/internal/common/errors"
	"feedcache/internal/common/logging"
	"feedcache/internal/tiers"
)

// DefaultTTL is used when a caller passes a non-positive TTL and no
// configured default overrides it.
const DefaultTTL = time.Hour

// Options configures an Engine.
type Options struct {
	// Tiers is the ordered tier list. Tiers[0] is the primary store for all
	// reads and writes; Tiers[1], when present, is the fallback tier used by
	// SetWithFallback/GetWithFallback. All tiers participate in clear, sweep
	// and stats.
	Tiers []tiers.Tier

	// Enabled gates the whole cache. When false, writes are dropped and
	// reads always miss; delete and clear still work so stale data can be
	// removed while disabled.
	Enabled bool

	// DefaultTTL applies when Set is called with a non-positive TTL.
	DefaultTTL time.Duration

	Logger logging.Logger

	// Now is the clock used for expiry decisions; tests inject their own.
	Now func() time.Time
}

// Engine is the TTL cache core.
type Engine struct {
	tiers      []tiers.Tier
	enabled    bool
	defaultTTL time.Duration
	logger     logging.Logger
	now        func() time.Time
}

// New creates an Engine from options. At least one tier is required.
func New(opts Options) (*Engine, error) {
	if len(opts.Tiers) == 0 {
		return nil, errors.ConfigError("cache requires at least one storage tier")
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		tiers:      opts.Tiers,
		enabled:    opts.Enabled,
		defaultTTL: opts.DefaultTTL,
		logger:     opts.Logger,
		now:        opts.Now,
	}, nil
}

// Enabled reports whether caching is active.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// DefaultDuration returns the TTL applied when callers do not specify one.
func (e *Engine) DefaultDuration() time.Duration {
	return e.defaultTTL
}

func (e *Engine) primary() tiers.Tier {
	return e.tiers[0]
}

func (e *Engine) fallback() tiers.Tier {
	if len(e.tiers) < 2 {
		return nil
	}
	return e.tiers[1]
}

// Set writes value under key with the given TTL to the primary tier. A
// non-positive ttl uses the configured default. The bool reports whether the
// entry was stored; a false with a nil error means caching is disabled.
func (e *Engine) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if !e.enabled {
		return false, nil
	}
	if ttl <= 0 {
		ttl = e.defaultTTL
	}

	env, err := newEnvelope(value, e.now(), ttl)
	if err != nil {
		return false, errors.ValidationError("value is not serializable").WithContext("key", key)
	}
	raw, err := env.encode()
	if err != nil {
		return false, errors.InternalError("failed to encode cache envelope", err)
	}

	if err := e.primary().Write(ctx, DeriveKey(key), raw, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Get reads the entry under key from the primary tier into dest (which may
// be nil to only probe presence). Absent and expired entries both report a
// miss; an expired entry is eagerly deleted before returning.
func (e *Engine) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !e.enabled {
		return false, nil
	}
	return e.readTier(ctx, e.primary(), DeriveKey(key), dest)
}

// Delete removes the entry under key from the primary tier and reports
// whether a removal occurred. Deleting an absent key is a no-op.
func (e *Engine) Delete(ctx context.Context, key string) (bool, error) {
	return e.primary().Remove(ctx, DeriveKey(key))
}

// SetWithFallback attempts a primary Set and, if the primary tier fails,
// retries against the fallback tier under the transient key transform. On
// success the entry lives in at least one tier.
func (e *Engine) SetWithFallback(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	ok, err := e.Set(ctx, key, value, ttl)
	if err == nil {
		return ok, nil
	}

	fb := e.fallback()
	if fb == nil {
		return false, err
	}

	e.logger.Warn("primary tier write failed, falling back",
		logging.String("key", key),
		logging.String("tier", fb.Name()),
		logging.Err(err))

	if ttl <= 0 {
		ttl = e.defaultTTL
	}
	env, envErr := newEnvelope(value, e.now(), ttl)
	if envErr != nil {
		return false, errors.ValidationError("value is not serializable").WithContext("key", key)
	}
	raw, envErr := env.encode()
	if envErr != nil {
		return false, errors.InternalError("failed to encode cache envelope", envErr)
	}

	if fbErr := fb.Write(ctx, deriveTransientKey(key), raw, ttl); fbErr != nil {
		return false, fbErr
	}
	return true, nil
}

// GetWithFallback attempts a primary Get and, on miss or primary failure,
// reads the fallback tier under the transient key transform. Expiry is
// honored on both tiers.
func (e *Engine) GetWithFallback(ctx context.Context, key string, dest interface{}) (bool, error) {
	found, err := e.Get(ctx, key, dest)
	if found {
		return true, nil
	}
	if err != nil {
		e.logger.Debug("primary tier read failed, trying fallback",
			logging.String("key", key), logging.Err(err))
	}

	fb := e.fallback()
	if fb == nil || !e.enabled {
		return false, err
	}
	return e.readTier(ctx, fb, deriveTransientKey(key), dest)
}

// ClearAll removes every entry in the known namespaces from every tier. In
// addition, tiers that can flush wholesale are flushed, and tiers that
// support prefix enumeration have the whole cache prefix removed, which also
// reclaims per-content and transient keys the registry cannot name. For
// tiers with neither capability the clear is best-effort and non-exhaustive.
func (e *Engine) ClearAll(ctx context.Context) error {
	var failed int
	var lastErr error

	for _, tier := range e.tiers {
		if flusher, ok := tier.(tiers.Flusher); ok {
			if err := flusher.FlushAll(ctx); err != nil {
				failed++
				lastErr = err
				e.logger.Warn("failed to flush tier", logging.String("tier", tier.Name()), logging.Err(err))
			}
			continue
		}

		if enum, ok := tier.(tiers.Enumerator); ok {
			if _, err := enum.RemovePrefix(ctx, storagePrefix); err != nil {
				failed++
				lastErr = err
				e.logger.Warn("failed to clear tier by prefix", logging.String("tier", tier.Name()), logging.Err(err))
			}
			continue
		}

		for _, logical := range RegistryKeys() {
			for _, storageKey := range []string{DeriveKey(logical), deriveTransientKey(logical)} {
				if _, err := tier.Remove(ctx, storageKey); err != nil {
					failed++
					lastErr = err
					e.logger.Warn("failed to remove entry during clear",
						logging.String("tier", tier.Name()),
						logging.String("key", logical),
						logging.Err(err))
				}
			}
		}
	}

	if failed > 0 {
		return errors.SweepPartialError(failed, lastErr)
	}
	return nil
}

// ClearFeedCache invalidates every cached feed artifact. When a content
// identifier is given, the per-content entry is removed from every tier as
// well. This is the coarse, correctness-first invalidation path: any content
// mutation can affect any derived feed, so everything goes.
func (e *Engine) ClearFeedCache(ctx context.Context, contentID string) error {
	err := e.ClearAll(ctx)

	if contentID != "" {
		storageKey := DeriveKey(ContentKey(contentID))
		for _, tier := range e.tiers {
			if _, rmErr := tier.Remove(ctx, storageKey); rmErr != nil {
				e.logger.Warn("failed to remove content entry",
					logging.String("tier", tier.Name()),
					logging.String("content_id", contentID),
					logging.Err(rmErr))
				if err == nil {
					err = errors.SweepPartialError(1, rmErr)
				}
			}
		}
	}
	return err
}

// readTier reads and validates one envelope from one tier, eagerly deleting
// entries that are expired or undecodable.
func (e *Engine) readTier(ctx context.Context, tier tiers.Tier, storageKey string, dest interface{}) (bool, error) {
	raw, found, err := tier.Read(ctx, storageKey)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		e.logger.Warn("dropping undecodable cache entry",
			logging.String("tier", tier.Name()), logging.Err(err))
		_, _ = tier.Remove(ctx, storageKey)
		return false, nil
	}

	if env.expired(e.now()) {
		if _, err := tier.Remove(ctx, storageKey); err != nil {
			e.logger.Warn("failed to evict expired entry",
				logging.String("tier", tier.Name()), logging.Err(err))
		}
		return false, nil
	}

	if dest != nil {
		if err := json.Unmarshal(env.Value, dest); err != nil {
			return false, errors.InternalError("failed to decode cached value", err)
		}
	}
	return true, nil
}
