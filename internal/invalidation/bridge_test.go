package invalidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"feedcache/internal/invalidation"
	"feedcache/internal/redis"
)

func setupBridge(t *testing.T) (*invalidation.RedisBridge, *invalidation.Bus, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	bus := invalidation.NewBus()
	bridge := invalidation.NewRedisBridge(client, bus, "feedcache:events", nil)
	bridge.Start(context.Background())
	t.Cleanup(bridge.Stop)

	return bridge, bus, client
}

func TestRedisBridge_RelaysRemoteEvents(t *testing.T) {
	bridge, bus, _ := setupBridge(t)

	received := make(chan invalidation.Event, 1)
	bus.Subscribe(invalidation.ContentDeleted, func(ctx context.Context, ev invalidation.Event) {
		received <- ev
	})

	// Give the subscription a moment to be established.
	time.Sleep(50 * time.Millisecond)

	err := bridge.Broadcast(context.Background(),
		invalidation.Event{Type: invalidation.ContentDeleted, ContentID: "99"})
	require.NoError(t, err)

	select {
	case ev := <-received:
		require.Equal(t, "99", ev.ContentID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed onto the local bus")
	}
}

func TestRedisBridge_IgnoresMalformedPayload(t *testing.T) {
	bridge, bus, client := setupBridge(t)

	received := make(chan invalidation.Event, 1)
	bus.Subscribe(invalidation.ContentUpdated, func(ctx context.Context, ev invalidation.Event) {
		received <- ev
	})

	time.Sleep(50 * time.Millisecond)

	// Garbage first, then a valid event; the relay must survive the garbage.
	require.NoError(t, client.Publish(context.Background(), "feedcache:events", "not json {"))
	require.NoError(t, bridge.Broadcast(context.Background(),
		invalidation.Event{Type: invalidation.ContentUpdated, ContentID: "5"}))

	select {
	case ev := <-received:
		require.Equal(t, "5", ev.ContentID)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event after malformed payload was not relayed")
	}
}

func TestRedisBridge_StartIsIdempotent(t *testing.T) {
	bridge, bus, _ := setupBridge(t)

	// setupBridge already started the bridge; these must not subscribe again.
	bridge.Start(context.Background())
	bridge.Start(context.Background())

	received := make(chan invalidation.Event, 2)
	bus.Subscribe(invalidation.ContentCreated, func(ctx context.Context, ev invalidation.Event) {
		received <- ev
	})

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bridge.Broadcast(context.Background(),
		invalidation.Event{Type: invalidation.ContentCreated, ContentID: "7"}))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed onto the local bus")
	}

	select {
	case <-received:
		t.Fatal("event was relayed more than once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedisBridge_StopThenStartResubscribes(t *testing.T) {
	bridge, bus, _ := setupBridge(t)

	bridge.Stop()
	bridge.Start(context.Background())

	received := make(chan invalidation.Event, 1)
	bus.Subscribe(invalidation.ContentDeleted, func(ctx context.Context, ev invalidation.Event) {
		received <- ev
	})

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bridge.Broadcast(context.Background(),
		invalidation.Event{Type: invalidation.ContentDeleted, ContentID: "3"}))

	select {
	case ev := <-received:
		require.Equal(t, "3", ev.ContentID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed after restart")
	}
}
