package handlers

import (
	"net/http"

	"link-router/internal/cache"
)

// CacheStats returns hit/miss/eviction counters for every cache namespace.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]cache.Stats{
		"destinations": h.destinations.GetStats(),
		"links":        h.links.GetStats(),
		"reports":      h.reports.GetStats(),
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// PatternStats returns the request pattern tracker's aggregate report.
func (h *Handlers) PatternStats(w http.ResponseWriter, r *http.Request) {
	topN := queryInt(r, "top", 10)
	h.respondJSON(w, http.StatusOK, h.tracker.GetStats(topN))
}

// HealthCheck reports the health of the persistent store and the remote
// cache tier. A degraded remote tier does not fail the check; the cache
// serves from its local tier in that state.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK

	storageStatus := "up"
	if err := h.storage.Health(); err != nil {
		storageStatus = "down"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	h.respondJSON(w, httpStatus, map[string]interface{}{
		"status":       status,
		"storage":      storageStatus,
		"remote_cache": h.destinations.State().String(),
	})
}
