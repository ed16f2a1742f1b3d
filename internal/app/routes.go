package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"link-router/internal/handlers"
	"link-router/internal/middleware"
	"link-router/internal/tracker"
)

// SetupRoutes configures all HTTP routes for the application. API paths are
// registered before the bare /{code} redirect route so they take precedence.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, t *tracker.Tracker) {
	router.Use(middleware.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Link management
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/links", h.CreateLink).Methods("POST")
	api.HandleFunc("/links", h.ListLinks).Methods("GET")
	api.HandleFunc("/links/{code}", h.GetLink).Methods("GET")
	api.HandleFunc("/links/{code}/stats", h.GetLinkStats).Methods("GET")

	// Cache and pattern observability
	api.HandleFunc("/cache/stats", h.CacheStats).Methods("GET")
	api.HandleFunc("/patterns/stats", h.PatternStats).Methods("GET")

	// Redirect route, pattern-tracked
	router.Handle("/{code}", t.Middleware(http.HandlerFunc(h.Redirect))).Methods("GET")
}
