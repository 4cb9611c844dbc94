// Package sweeper schedules the recurring expiry sweep that reclaims stale
// cache entries across all storage tiers.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"feedcache/internal/common/logging"
)

// Cleaner is the slice of the cache engine the sweeper needs.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper runs the expiry sweep on a cron schedule. Registration is
// idempotent: calling Start more than once keeps a single schedule.
type Sweeper struct {
	cache    Cleaner
	schedule string
	logger   logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	started bool
}

// New creates a sweeper with a cron schedule expression such as "@hourly".
func New(cache Cleaner, schedule string, logger logging.Logger) *Sweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Sweeper{
		cache:    cache,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler. A second Start is
// a no-op, preserving the single-registration guarantee.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.started = true

	s.logger.Info("expiry sweep scheduled", logging.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler, waiting for an in-flight sweep to finish. The
// sweep job is deregistered so a later Start keeps the single-registration
// guarantee.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.started = false
}

// Entries reports how many jobs are registered, used by tests to verify
// idempotent registration.
func (s *Sweeper) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cron.Entries())
}

// Sweep runs one sweep pass immediately, outside the schedule.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	return s.cache.CleanupExpired(ctx)
}

func (s *Sweeper) runOnce() {
	started := time.Now()
	reclaimed, err := s.cache.CleanupExpired(context.Background())
	if err != nil {
		// Partial failures are expected under the best-effort contract;
		// whatever survived gets another chance next cycle.
		s.logger.Warn("expiry sweep completed with failures",
			logging.Int("reclaimed", reclaimed),
			logging.Duration("elapsed", time.Since(started)),
			logging.Err(err))
		return
	}
	s.logger.Info("expiry sweep completed",
		logging.Int("reclaimed", reclaimed),
		logging.Duration("elapsed", time.Since(started)))
}
