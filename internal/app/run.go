package app

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"link-router/internal/common/logging"
	"link-router/internal/config"
	"link-router/internal/handlers"
	"link-router/internal/server"
)

// Run is the main entry point for the application
func Run() error {
	// Load environment variables
	_ = godotenv.Load()

	runtime.GOMAXPROCS(runtime.NumCPU())

	// Initialize logging
	logging.InitGlobalLogger()
	defer logging.MustSync()

	logging.Info("Starting link router",
		logging.Int("cpus", runtime.NumCPU()),
	)

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}

	// Initialize application
	app, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	// Build HTTP surface
	h := handlers.New(app.Storage, app.Destinations, app.Links, app.Reports, app.Tracker)
	router := mux.NewRouter()
	SetupRoutes(router, h, app.Tracker)

	srv := server.New(router, cfg.Port)
	errCh := srv.Start()
	logging.Info("Server started", logging.String("port", cfg.Port))

	// Wait for interrupt signal or listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logging.Error("Server failed", err)
		return err
	case <-quit:
	}

	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", err)
		return err
	}

	logging.Info("Server exited")
	return nil
}
