// Package redis implements the ephemeral storage tier on top of go-redis.
package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"feedcache/internal/common/errors"
)

const tierName = "ephemeral"

// expiryGrace keeps the raw envelope around past its logical expiry so the
// sweeper and stats reporter can still observe expired-but-present entries.
const expiryGrace = time.Hour

// Tier is the redis-backed ephemeral storage tier.
type Tier struct {
	client    *goredis.Client
	keyPrefix string
}

// New creates a redis tier. keyPrefix isolates this tier's keys from
// unrelated data in the same database.
func New(client *goredis.Client, keyPrefix string) *Tier {
	return &Tier{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (t *Tier) Name() string {
	return tierName
}

func (t *Tier) Read(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := t.client.Get(ctx, t.keyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StorageUnavailableError(tierName, err)
	}
	return value, true, nil
}

func (t *Tier) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiration := ttl
	if expiration > 0 {
		expiration += expiryGrace
	}
	if err := t.client.Set(ctx, t.keyPrefix+key, value, expiration).Err(); err != nil {
		return errors.StorageUnavailableError(tierName, err)
	}
	return nil
}

func (t *Tier) Remove(ctx context.Context, key string) (bool, error) {
	removed, err := t.client.Del(ctx, t.keyPrefix+key).Result()
	if err != nil {
		return false, errors.StorageUnavailableError(tierName, err)
	}
	return removed > 0, nil
}

// RemovePrefix deletes every key under the given prefix using SCAN. Redis
// supports real enumeration, so clear operations on this tier are exhaustive
// rather than limited to the fixed namespace registry.
func (t *Tier) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	iter := t.client.Scan(ctx, 0, t.keyPrefix+prefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := t.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	return int(removed), nil
}
