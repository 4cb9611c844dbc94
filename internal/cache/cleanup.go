package cache

import (
	"context"

	"feedcache/internal/common/errors"
	"feedcache/internal/common/logging"
	"feedcache/internal/tiers"
)

// CleanupExpired sweeps every tier and reclaims expired entries, returning
// the number removed. Tiers that record deadlines natively are reclaimed in
// one pass, which also catches per-content keys; the rest are walked through
// the known namespaces. The sweep is stateless, idempotent and re-entrant
// safe: an absent entry is not an error, each tier counts independently, and
// a failure to delete one entry never aborts the rest of the pass. When some
// deletions fail the count of successful reclaims is still returned
// alongside a SweepPartial error.
func (e *Engine) CleanupExpired(ctx context.Context) (int, error) {
	now := e.now()
	reclaimed := 0
	failed := 0
	var lastErr error

	for _, tier := range e.tiers {
		if rec, ok := tier.(tiers.Reclaimer); ok {
			removed, err := rec.RemoveExpired(ctx, now)
			reclaimed += removed
			if err != nil {
				failed++
				lastErr = err
				e.logger.Warn("sweep: native reclaim failed",
					logging.String("tier", tier.Name()),
					logging.Err(err))
			}
			continue
		}

		for _, logical := range RegistryKeys() {
			keys := []string{DeriveKey(logical)}
			if fb := e.fallback(); fb != nil && tier == fb {
				keys = append(keys, deriveTransientKey(logical))
			}

			for _, storageKey := range keys {
				raw, found, err := tier.Read(ctx, storageKey)
				if err != nil {
					failed++
					lastErr = err
					e.logger.Warn("sweep: failed to read entry",
						logging.String("tier", tier.Name()),
						logging.String("key", logical),
						logging.Err(err))
					continue
				}
				if !found {
					continue
				}

				env, err := decodeEnvelope(raw)
				// An entry without readable expiry metadata is always
				// expired-eligible.
				if err == nil && !env.expired(now) {
					continue
				}

				removed, err := tier.Remove(ctx, storageKey)
				if err != nil {
					failed++
					lastErr = err
					e.logger.Warn("sweep: failed to remove expired entry",
						logging.String("tier", tier.Name()),
						logging.String("key", logical),
						logging.Err(err))
					continue
				}
				if removed {
					reclaimed++
				}
			}
		}
	}

	if failed > 0 {
		return reclaimed, errors.SweepPartialError(failed, lastErr)
	}
	return reclaimed, nil
}
