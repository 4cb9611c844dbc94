// Package handlers exposes the cache service's HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"feedcache/internal/cache"
	"feedcache/internal/common/logging"
	"feedcache/internal/invalidation"
	"feedcache/internal/warmer"
)

type Handlers struct {
	cache  *cache.Engine
	bus    *invalidation.Bus
	warmer *warmer.Warmer
	logger logging.Logger
}

func New(engine *cache.Engine, bus *invalidation.Bus, w *warmer.Warmer, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		cache:  engine,
		bus:    bus,
		warmer: w,
		logger: logger,
	}
}

// Register wires all routes onto the router.
func (h *Handlers) Register(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cache/{key}", h.GetEntry).Methods("GET")
	api.HandleFunc("/cache/{key}", h.SetEntry).Methods("PUT")
	api.HandleFunc("/cache/{key}", h.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/cache", h.ClearCache).Methods("DELETE")
	api.HandleFunc("/stats", h.GetCacheStats).Methods("GET")
	api.HandleFunc("/cleanup", h.Cleanup).Methods("POST")
	api.HandleFunc("/warm", h.Warm).Methods("POST")
	api.HandleFunc("/events", h.PublishEvent).Methods("POST")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

type setRequest struct {
	Value      json.RawMessage `json:"value"`
	TTLSeconds int             `json:"ttl_seconds,omitempty"`
}

type entryResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// GetEntry returns the cached value under a logical key, or 404 on a miss.
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var value json.RawMessage
	found, err := h.cache.GetWithFallback(r.Context(), key, &value)
	if err != nil {
		h.logger.Error("cache read failed", err, logging.String("key", key))
	}
	if !found {
		http.Error(w, "cache miss", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, entryResponse{Key: key, Value: value})
}

// SetEntry stores a value under a logical key.
func (h *Handlers) SetEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Value) == 0 {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	stored, err := h.cache.SetWithFallback(r.Context(), key, req.Value, ttl)
	if err != nil {
		h.logger.Error("cache write failed", err, logging.String("key", key))
		http.Error(w, "cache write failed", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"stored": stored})
}

// DeleteEntry removes the entry under a logical key.
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	removed, err := h.cache.Delete(r.Context(), key)
	if err != nil {
		h.logger.Error("cache delete failed", err, logging.String("key", key))
		http.Error(w, "cache delete failed", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// ClearCache clears all known namespaces; an optional content_id query
// parameter also drops that item's per-content entry.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	contentID := r.URL.Query().Get("content_id")

	if err := h.cache.ClearFeedCache(r.Context(), contentID); err != nil {
		// Partial clears still cleared most entries; report but succeed.
		h.logger.Warn("cache clear incomplete", logging.Err(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetCacheStats returns entry counts and size estimates across all tiers.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// Cleanup runs one expiry sweep immediately and reports the reclaimed count.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	reclaimed, err := h.cache.CleanupExpired(r.Context())
	if err != nil {
		h.logger.Warn("sweep completed with failures", logging.Err(err))
	}

	writeJSON(w, http.StatusOK, map[string]int{"reclaimed": reclaimed})
}

// Warm primes the cache by fetching all known feed URIs.
func (h *Handlers) Warm(w http.ResponseWriter, r *http.Request) {
	attempted := h.warmer.Warm(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"attempted": attempted})
}

// PublishEvent injects a content-mutation event, triggering invalidation.
func (h *Handlers) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var event invalidation.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if event.Type == "" {
		http.Error(w, "event type is required", http.StatusBadRequest)
		return
	}

	h.bus.Publish(r.Context(), event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "published"})
}

// HealthCheck reports service liveness and whether caching is enabled.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"caching_enabled": h.cache.Enabled(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
