package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcache/internal/common/errors"
)

func setupTestTier(t *testing.T) (*Tier, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, "test:"), mr
}

func TestTier_ReadWriteRemove(t *testing.T) {
	tier, _ := setupTestTier(t)
	ctx := context.Background()

	assert.Equal(t, "ephemeral", tier.Name())

	_, found, err := tier.Read(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tier.Write(ctx, "k", []byte("payload"), time.Minute))

	value, found, err := tier.Read(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), value)

	removed, err := tier.Remove(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = tier.Remove(ctx, "k")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTier_KeyPrefixIsolation(t *testing.T) {
	tier, mr := setupTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Write(ctx, "k", []byte("v"), time.Minute))

	// Stored under the tier's prefix, not the bare key.
	assert.True(t, mr.Exists("test:k"))
	assert.False(t, mr.Exists("k"))
}

func TestTier_NativeExpiryWithGrace(t *testing.T) {
	tier, mr := setupTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Write(ctx, "k", []byte("v"), time.Minute))

	// The envelope outlives its logical TTL so the sweeper can observe it.
	mr.FastForward(time.Minute + 30*time.Second)
	_, found, err := tier.Read(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	// After the grace period redis reclaims it on its own.
	mr.FastForward(expiryGrace)
	_, found, err = tier.Read(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTier_RemovePrefix(t *testing.T) {
	tier, mr := setupTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Write(ctx, "feedcache_a", []byte("1"), time.Minute))
	require.NoError(t, tier.Write(ctx, "feedcache_b", []byte("2"), time.Minute))
	require.NoError(t, tier.Write(ctx, "other_c", []byte("3"), time.Minute))

	removed, err := tier.RemovePrefix(ctx, "feedcache_")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Unrelated keys survive.
	assert.True(t, mr.Exists("test:other_c"))
}

func TestTier_StorageUnavailable(t *testing.T) {
	tier, mr := setupTestTier(t)
	ctx := context.Background()

	mr.Close()

	err := tier.Write(ctx, "k", []byte("v"), time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorageUnavailable))

	_, _, err = tier.Read(ctx, "k")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorageUnavailable))
}
