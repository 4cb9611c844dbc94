package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_ReadWriteRemove(t *testing.T) {
	tier := New(time.Hour, time.Hour)
	ctx := context.Background()

	assert.Equal(t, "in-memory", tier.Name())

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
	assert.False(t, removed, "removing an absent key is a no-op")
}

func TestTier_FlushAll(t *testing.T) {
	tier := New(time.Hour, time.Hour)
	ctx := context.Background()

	require.NoError(t, tier.Write(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, tier.Write(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, tier.FlushAll(ctx))

	for _, key := range []string{"a", "b"} {
		_, found, err := tier.Read(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestTier_NativeExpiry(t *testing.T) {
	tier := New(time.Hour, time.Hour)
	ctx := context.Background()

	require.NoError(t, tier.Write(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := tier.Read(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
