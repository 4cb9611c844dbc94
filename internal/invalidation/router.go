package invalidation

import (
	"context"

	"feedcache/internal/common/logging"
)

// Invalidator is the slice of the cache engine the router needs.
type Invalidator interface {
	ClearFeedCache(ctx context.Context, contentID string) error
}

// Router maps mutation events to cache invalidation. Any content change can
// affect any cached feed or aggregate (one new post changes "recent posts",
// counts and summaries at once), so the router clears the whole feed cache
// on every signal rather than tracking fine-grained dependencies, and
// additionally drops the per-content entry when an identifier is available.
type Router struct {
	cache  Invalidator
	logger logging.Logger
}

// NewRouter creates a router invalidating the given cache.
func NewRouter(cache Invalidator, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Router{
		cache:  cache,
		logger: logger,
	}
}

// Attach subscribes the router to every mutation event type on the bus.
func (r *Router) Attach(bus *Bus) {
	for _, eventType := range AllEventTypes {
		bus.Subscribe(eventType, r.handle)
	}
}

func (r *Router) handle(ctx context.Context, event Event) {
	r.logger.Debug("invalidating cache on mutation event",
		logging.String("event", string(event.Type)),
		logging.String("content_id", event.ContentID))

	if err := r.cache.ClearFeedCache(ctx, event.ContentID); err != nil {
		// Best-effort: a partial clear only means some entries survive
		// until the next sweep.
		r.logger.Warn("cache invalidation incomplete",
			logging.String("event", string(event.Type)),
			logging.Err(err))
	}
}
