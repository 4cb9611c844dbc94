package cache

import (
	"context"
	"math"

	"feedcache/internal/common/logging"
)

// TierStats breaks the report down per storage tier.
type TierStats struct {
	TotalEntries   int   `json:"total_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	SizeBytes      int64 `json:"size_bytes"`
}

// StatsReport aggregates cache size and entry counts across all tiers.
type StatsReport struct {
	TotalEntries   int                  `json:"total_entries"`
	ExpiredEntries int                  `json:"expired_entries"`
	ActiveEntries  int                  `json:"active_entries"`
	CacheSizeBytes int64                `json:"cache_size_bytes"`
	CacheSizeMB    float64              `json:"cache_size_mb"`
	Tiers          map[string]TierStats `json:"tiers"`
}

// Stats probes the known namespaces across every tier and classifies each
// found entry as active or expired. Size is the serialized envelope length,
// a deterministic estimate monotonic with payload size. The probe shares the
// registry enumeration limitation of ClearAll: entries outside the registry
// are not counted.
func (e *Engine) Stats(ctx context.Context) *StatsReport {
	now := e.now()
	report := &StatsReport{
		Tiers: make(map[string]TierStats, len(e.tiers)),
	}

	for _, tier := range e.tiers {
		tierStats := report.Tiers[tier.Name()]

		for _, logical := range RegistryKeys() {
			keys := []string{DeriveKey(logical)}
			if fb := e.fallback(); fb != nil && tier == fb {
				keys = append(keys, deriveTransientKey(logical))
			}

			for _, storageKey := range keys {
				raw, found, err := tier.Read(ctx, storageKey)
				if err != nil {
					e.logger.Debug("stats: failed to read entry",
						logging.String("tier", tier.Name()),
						logging.String("key", logical),
						logging.Err(err))
					continue
				}
				if !found {
					continue
				}

				report.TotalEntries++
				report.CacheSizeBytes += int64(len(raw))
				tierStats.TotalEntries++
				tierStats.SizeBytes += int64(len(raw))

				env, err := decodeEnvelope(raw)
				if err != nil || env.expired(now) {
					report.ExpiredEntries++
					tierStats.ExpiredEntries++
				}
			}
		}

		report.Tiers[tier.Name()] = tierStats
	}

	report.ActiveEntries = report.TotalEntries - report.ExpiredEntries
	if report.ActiveEntries < 0 {
		report.ActiveEntries = 0
	}
	report.CacheSizeMB = math.Round(float64(report.CacheSizeBytes)/(1024*1024)*100) / 100

	return report
}
