package cache_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcache/internal/tiers"
	"feedcache/internal/tiers/memory"
)

func TestStats_EmptyCache(t *testing.T) {
	e := newTestEngine(t)

	report := e.Stats(context.Background())
	assert.Equal(t, 0, report.TotalEntries)
	assert.Equal(t, 0, report.ExpiredEntries)
	assert.Equal(t, 0, report.ActiveEntries)
	assert.Equal(t, int64(0), report.CacheSizeBytes)
	assert.Equal(t, 0.0, report.CacheSizeMB)
}

func TestStats_ClassifiesActiveAndExpired(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Set(ctx, "feed_cache", "<xml/>", time.Minute)
	require.NoError(t, err)
	_, err = e.Set(ctx, "footer_cache", "footer", 2*time.Hour)
	require.NoError(t, err)

	report := e.Stats(ctx)
	assert.Equal(t, 2, report.TotalEntries)
	assert.Equal(t, 0, report.ExpiredEntries)
	assert.Equal(t, 2, report.ActiveEntries)
	assert.Greater(t, report.CacheSizeBytes, int64(0))

	e.advance(61 * time.Second)

	report = e.Stats(ctx)
	assert.Equal(t, 2, report.TotalEntries)
	assert.Equal(t, 1, report.ExpiredEntries)
	assert.Equal(t, 1, report.ActiveEntries)
}

func TestStats_SizeMonotonicWithPayload(t *testing.T) {
	small := newTestEngine(t)
	large := newTestEngine(t)
	ctx := context.Background()

	_, err := small.Set(ctx, "feed_cache", "tiny", time.Hour)
	require.NoError(t, err)
	_, err = large.Set(ctx, "feed_cache", strings.Repeat("x", 4096), time.Hour)
	require.NoError(t, err)

	assert.Greater(t, large.Stats(ctx).CacheSizeBytes, small.Stats(ctx).CacheSizeBytes)
}

func TestStats_MegabytesRounding(t *testing.T) {
	tier := memory.New(time.Hour, time.Hour)
	e := newTestEngine(t, []tiers.Tier{tier}...)
	ctx := context.Background()

	// ~1.5 MB payload lands between rounding boundaries.
	payload := strings.Repeat("a", 1_572_864)
	_, err := e.Set(ctx, "feed_cache", payload, time.Hour)
	require.NoError(t, err)

	report := e.Stats(ctx)
	assert.InDelta(t, 1.5, report.CacheSizeMB, 0.01)
	// Two decimal places at most.
	assert.Equal(t, report.CacheSizeMB, float64(int(report.CacheSizeMB*100))/100)
}

func TestStats_PerTierBreakdown(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Set(ctx, "feed_cache", "v", time.Hour)
	require.NoError(t, err)

	report := e.Stats(ctx)
	require.Contains(t, report.Tiers, "in-memory")
	assert.Equal(t, 1, report.Tiers["in-memory"].TotalEntries)
}
