// Package server wraps http.Server with sane timeouts and graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"
)

// Server represents an HTTP server
type Server struct {
	srv *http.Server
}

// New creates a new server instance
func New(handler http.Handler, port string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start starts the server in a background goroutine. Listen failures other
// than a clean shutdown are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
