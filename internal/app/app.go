// Package app wires the application together: configuration, storage, the
// cache namespaces, the pattern tracker, periodic warming, and the HTTP
// server.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"link-router/internal/cache"
	"link-router/internal/common/logging"
	"link-router/internal/config"
	"link-router/internal/models"
	"link-router/internal/redis"
	"link-router/internal/storage"
	"link-router/internal/tracker"
)

// App holds all the application dependencies
type App struct {
	Config  *config.Config
	Storage storage.Storage

	RedisClient *redis.Client

	// One cache namespace per payload shape. All share the remote client
	// but key into disjoint namespaces.
	Destinations *cache.Service[string]
	Links        *cache.Service[models.Link]
	Reports      *cache.Service[models.LinkStats]

	Tracker *tracker.Tracker
	Warmer  *cache.Warmer[string]

	Logger logging.Logger

	cron *cron.Cron
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.WithFields(logging.String("component", "app")),
	}

	// Initialize components in order of dependency
	if err := app.initializeStorage(); err != nil {
		return nil, err
	}

	if err := app.initializeRedis(); err != nil {
		// A missing remote tier is not fatal; caches run local-only.
		app.Logger.Warn("Redis initialization failed, caches running local-only",
			logging.String("error", err.Error()))
	}

	app.initializeCaches()
	app.initializeTracker()

	if err := app.initializeWarming(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

func (app *App) initializeStorage() error {
	store, err := storage.New(app.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.Storage = store
	app.Logger.Info("Storage initialized",
		logging.String("type", app.Config.DatabaseType))
	return nil
}

func (app *App) initializeRedis() error {
	if !app.Config.RedisEnabled() {
		app.Logger.Info("Redis not configured, caches running local-only")
		return nil
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDB,
		PoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		return err
	}
	app.RedisClient = client
	app.Logger.Info("Redis client initialized",
		logging.String("address", app.Config.RedisAddress))
	return nil
}

func (app *App) initializeCaches() {
	// The interface value must stay nil when Redis is disabled, otherwise
	// the cache would probe a nil client.
	var remote cache.RemoteClient
	if app.RedisClient != nil {
		remote = app.RedisClient
	}

	base := cache.Config{
		MaxSize:         app.Config.CacheMaxSize,
		TTL:             app.Config.CacheTTL,
		CleanupInterval: app.Config.CacheCleanupInterval,
	}

	destCfg := base
	destCfg.Name = "dest"
	app.Destinations = cache.New[string](destCfg, cache.StringCodec{}, remote)

	linkCfg := base
	linkCfg.Name = "link"
	app.Links = cache.New[models.Link](linkCfg, cache.JSONCodec[models.Link]{}, remote)

	reportCfg := base
	reportCfg.Name = "report"
	app.Reports = cache.New[models.LinkStats](reportCfg, cache.JSONCodec[models.LinkStats]{}, remote)
}

func (app *App) initializeTracker() {
	app.Tracker = tracker.New(tracker.Config{}, app.Destinations, &linkSource{store: app.Storage})
}

func (app *App) initializeWarming() error {
	app.Warmer = cache.NewWarmer[string](app.Destinations, app.fetchMostUsed, app.Config.CacheWarmupLimit)

	// Initial warm-up pass; a failed pass is logged and retried on the
	// next scheduled run.
	if count, err := app.Warmer.Run(context.Background()); err == nil {
		app.Logger.Info("Cache warmed", logging.Int("entries", count))
	}

	app.cron = cron.New()
	_, err := app.cron.AddFunc(app.Config.CacheWarmupSchedule, func() {
		if count, err := app.Warmer.Run(context.Background()); err == nil {
			app.Logger.Info("Cache warmed", logging.Int("entries", count))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid warm-up schedule %q: %w", app.Config.CacheWarmupSchedule, err)
	}
	app.cron.Start()
	return nil
}

// fetchMostUsed loads the most-used links from storage as destination
// cache entries.
func (app *App) fetchMostUsed(ctx context.Context, limit int) ([]cache.Entry[string], error) {
	links, err := app.Storage.MostUsed(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]cache.Entry[string], 0, len(links))
	for _, link := range links {
		entries = append(entries, cache.Entry[string]{Key: link.Code, Value: link.Destination})
	}
	return entries, nil
}

// Cleanup releases all application resources in reverse dependency order.
func (app *App) Cleanup() {
	if app.cron != nil {
		app.cron.Stop()
	}
	if app.Tracker != nil {
		app.Tracker.Close()
	}
	if app.Destinations != nil {
		app.Destinations.Close()
	}
	if app.Links != nil {
		app.Links.Close()
	}
	if app.Reports != nil {
		app.Reports.Close()
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis client", logging.Err(err))
		}
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil {
			app.Logger.Warn("Error closing storage", logging.Err(err))
		}
	}
}
