package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Storage keys are content-addressed: the logical key is hashed and the
// digest prefixed, so arbitrary-length logical keys normalize to a bounded
// storage key that cannot collide with unrelated rows in a shared store.
const (
	storagePrefix = "feedcache_"

	// transientPrefix marks fallback writes so they never shadow a primary
	// entry for the same logical key.
	transientPrefix = "feedcache_fb_"
)

// baseKeys is the fixed registry of well-known cache namespaces. The
// underlying stores expose no generic enumeration primitive, so sweep,
// stats and clear operations probe these keys (times their variants)
// instead of scanning. Keys written outside the registry are only
// reclaimed on tiers that support prefix enumeration.
var baseKeys = map[string][]string{
	"feed_cache":        {"", "_rss2", "_atom", "_rdf", "_comments_rss2", "_comments_atom"},
	"performance_stats": {"", "_24h", "_7d", "_30d"},
	"analytics_summary": {"", "_24h", "_7d", "_30d"},
	"geographic_stats":  {"", "_24h", "_7d", "_30d"},
	"footer_cache":      {""},
}

// RegistryKeys returns every known logical key (base key + variant suffix)
// in deterministic order.
func RegistryKeys() []string {
	keys := make([]string, 0, 24)
	for base, variants := range baseKeys {
		for _, variant := range variants {
			keys = append(keys, base+variant)
		}
	}
	sort.Strings(keys)
	return keys
}

// ContentKey returns the logical key caching a single content item's
// derived artifact. Content keys are not enumerable; they are cleared via
// an explicit content identifier or by prefix-capable tiers.
func ContentKey(contentID string) string {
	return "feed_cache_content_" + contentID
}

// DeriveKey maps a logical key to its storage key.
func DeriveKey(logical string) string {
	return storagePrefix + digest(logical)
}

// deriveTransientKey maps a logical key to the storage key used for
// fallback-tier writes.
func deriveTransientKey(logical string) string {
	return transientPrefix + digest(logical)
}

func digest(logical string) string {
	sum := sha256.Sum256([]byte(logical))
	return hex.EncodeToString(sum[:])[:32]
}
