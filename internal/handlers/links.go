package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "link-router/internal/common/errors"
	"link-router/internal/common/logging"
	"link-router/internal/models"
)

// CreateLink registers a new short code. The freshly created link is
// written through both the links and destinations caches so the first
// redirect is already a cache hit.
func (h *Handlers) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	link := &models.Link{
		Code:        req.Code,
		Destination: req.Destination,
		Campaign:    req.Campaign,
	}
	if err := h.storage.CreateLink(r.Context(), link); err != nil {
		h.logger.Error("failed to create link", err, logging.String("code", req.Code))
		h.respondError(w, http.StatusConflict, "failed to create link")
		return
	}

	h.links.Set(r.Context(), link.Code, *link)
	h.destinations.Set(r.Context(), link.Code, link.Destination)

	h.respondJSON(w, http.StatusCreated, link)
}

// GetLink returns the full link record for a short code.
func (h *Handlers) GetLink(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if link, ok := h.links.Get(r.Context(), code); ok {
		h.respondJSON(w, http.StatusOK, link)
		return
	}

	link, err := h.storage.GetLink(r.Context(), code)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			h.respondError(w, http.StatusNotFound, "link not found")
			return
		}
		h.logger.Error("failed to get link", err, logging.String("code", code))
		h.respondError(w, http.StatusInternalServerError, "failed to get link")
		return
	}

	h.links.Set(r.Context(), code, *link)
	h.respondJSON(w, http.StatusOK, link)
}

// ListLinks returns paginated links ordered by creation time.
func (h *Handlers) ListLinks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	links, err := h.storage.ListLinks(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list links", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list links")
		return
	}
	if links == nil {
		links = []*models.Link{}
	}

	h.respondJSON(w, http.StatusOK, links)
}

// GetLinkStats returns the usage report for a short code, served from the
// reports cache when possible.
func (h *Handlers) GetLinkStats(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if stats, ok := h.reports.Get(r.Context(), code); ok {
		h.respondJSON(w, http.StatusOK, stats)
		return
	}

	stats, err := h.storage.GetLinkStats(r.Context(), code)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			h.respondError(w, http.StatusNotFound, "link not found")
			return
		}
		h.logger.Error("failed to get link stats", err, logging.String("code", code))
		h.respondError(w, http.StatusInternalServerError, "failed to get link stats")
		return
	}

	h.reports.Set(r.Context(), code, *stats)
	h.respondJSON(w, http.StatusOK, stats)
}

func queryInt(r *http.Request, name string, defaultValue int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
