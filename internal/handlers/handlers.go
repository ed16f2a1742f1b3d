// Package handlers implements the HTTP API: link redirection, link
// management, and cache/pattern statistics.
package handlers

import (
	"encoding/json"
	"net/http"

	"link-router/internal/cache"
	"link-router/internal/common/logging"
	"link-router/internal/models"
	"link-router/internal/storage"
	"link-router/internal/tracker"
)

// Handlers holds the dependencies shared by all HTTP handlers: the
// persistent store, one cache namespace per payload shape, and the
// request pattern tracker.
type Handlers struct {
	storage      storage.Storage
	destinations *cache.Service[string]
	links        *cache.Service[models.Link]
	reports      *cache.Service[models.LinkStats]
	tracker      *tracker.Tracker
	logger       logging.Logger
}

func New(
	store storage.Storage,
	destinations *cache.Service[string],
	links *cache.Service[models.Link],
	reports *cache.Service[models.LinkStats],
	patterns *tracker.Tracker,
) *Handlers {
	return &Handlers{
		storage:      store,
		destinations: destinations,
		links:        links,
		reports:      reports,
		tracker:      patterns,
		logger:       logging.WithFields(logging.String("component", "handlers")),
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
