// Package invalidation routes content-mutation events to cache invalidation.
// It provides a typed in-process event bus, the router mapping events to
// invalidation calls, and a redis pub/sub bridge so mutations signaled by
// other processes invalidate this process's cache too.
package invalidation

import (
	"context"
	"sync"
)

// EventType names a content-mutation signal.
type EventType string

const (
	ContentCreated       EventType = "content.created"
	ContentUpdated       EventType = "content.updated"
	ContentDeleted       EventType = "content.deleted"
	ContentRestored      EventType = "content.restored"
	CommentPosted        EventType = "comment.posted"
	CommentStatusChanged EventType = "comment.status_changed"
)

// AllEventTypes lists every mutation signal the router subscribes to.
var AllEventTypes = []EventType{
	ContentCreated,
	ContentUpdated,
	ContentDeleted,
	ContentRestored,
	CommentPosted,
	CommentStatusChanged,
}

// Event is a single mutation signal. ContentID is optional; when present it
// identifies the content item whose per-item cache entry should go too.
type Event struct {
	Type      EventType `json:"type"`
	ContentID string    `json:"content_id,omitempty"`
}

// Handler consumes a published event.
type Handler func(ctx context.Context, event Event)

// Bus is a minimal in-process publish/subscribe mechanism. Subscription
// normally happens once at startup; Publish may be called concurrently.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event synchronously to every subscribed handler.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
