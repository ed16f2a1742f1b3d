package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperrors "link-router/internal/common/errors"
	"link-router/internal/common/logging"
)

// Redirect resolves a short code and redirects to its destination. The
// destinations cache is consulted first; on a miss the persistent store is
// queried and the result is written back through the cache. Hit recording
// happens off the request path so a slow store never delays the redirect.
func (h *Handlers) Redirect(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		h.respondError(w, http.StatusBadRequest, "short code is required")
		return
	}

	destination, ok := h.destinations.Get(r.Context(), code)
	if !ok {
		link, err := h.storage.GetLink(r.Context(), code)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
				h.respondError(w, http.StatusNotFound, "link not found")
				return
			}
			h.logger.Error("failed to resolve link", err, logging.String("code", code))
			h.respondError(w, http.StatusInternalServerError, "failed to resolve link")
			return
		}
		destination = link.Destination
		h.destinations.Set(r.Context(), code, destination)
	}

	go h.recordHit(code)

	http.Redirect(w, r, destination, http.StatusFound)
}

func (h *Handlers) recordHit(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.storage.RecordHit(ctx, code); err != nil {
		h.logger.Error("failed to record hit", err, logging.String("code", code))
	}
}
