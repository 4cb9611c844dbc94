package invalidation

import (
	"context"
	"encoding/json"
	"sync"

	"feedcache/internal/common/logging"
	"feedcache/internal/redis"
)

// RedisBridge relays mutation events between processes over a redis pub/sub
// channel. Events published locally are broadcast to peers; events received
// from peers are republished on the local bus so the router sees them.
type RedisBridge struct {
	client  *redis.Client
	bus     *Bus
	channel string
	logger  logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewRedisBridge creates a bridge on the given pub/sub channel.
func NewRedisBridge(client *redis.Client, bus *Bus, channel string, logger logging.Logger) *RedisBridge {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RedisBridge{
		client:  client,
		bus:     bus,
		channel: channel,
		logger:  logger,
	}
}

// Start begins relaying remote events onto the local bus until Stop is
// called or ctx is canceled. A second Start while running is a no-op, so the
// bridge never holds more than one subscription.
func (b *RedisBridge) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}

	ctx, b.cancel = context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("dropping malformed mutation event",
						logging.String("channel", b.channel), logging.Err(err))
					continue
				}
				b.bus.Publish(ctx, event)
			}
		}
	}()

	b.started = true
	b.logger.Info("mutation event bridge started", logging.String("channel", b.channel))
}

// Stop halts the relay. A later Start subscribes again.
func (b *RedisBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return
	}
	b.cancel()
	b.started = false
}

// Broadcast publishes a local mutation event to peer processes.
func (b *RedisBridge) Broadcast(ctx context.Context, event Event) error {
	return b.client.Publish(ctx, b.channel, event)
}
