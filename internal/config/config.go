// Package config provides configuration management for the link router application.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the application starts safely.
//
// The package supports multiple database backends (SQLite and PostgreSQL) for the
// persistent link store, and an optional Redis remote cache tier. Leaving the Redis
// address unset is a valid "local-only" cache mode, not an error.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file path (default: stdout)
//
// Database Configuration:
//   - DATABASE_TYPE: Database type - "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./link_router.db)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//
// Redis Configuration (optional - absence enables local-only cache mode):
//   - REDIS_ADDRESS: Redis server address (default: unset)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Cache Configuration:
//   - CACHE_MAX_SIZE: Local tier entry cap per cache instance (default: 1000)
//   - CACHE_TTL: Sliding expiration window (default: 5m)
//   - CACHE_CLEANUP_INTERVAL: Local tier expiry sweep interval (default: 10m)
//   - CACHE_WARMUP_LIMIT: Number of most-used links loaded on warm-up (default: 100)
//   - CACHE_WARMUP_SCHEDULE: Cron spec for periodic warming (default: @every 15m)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the link router application.
// All fields correspond to environment variables that can be set to
// override the default values.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Database configuration for the persistent link store
	DatabaseType     string // Database type: "sqlite" or "postgres"
	DatabasePath     string // Path to SQLite database file
	PostgresHost     string // PostgreSQL host address
	PostgresPort     string // PostgreSQL port number
	PostgresDB       string // PostgreSQL database name
	PostgresUser     string // PostgreSQL username
	PostgresPassword string // PostgreSQL password
	PostgresSSLMode  string // PostgreSQL SSL mode (disable, require, etc.)

	// Redis configuration for the remote cache tier.
	// An empty address means the remote tier is disabled and every cache
	// instance runs local-only.
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Cache configuration shared by all cache namespaces
	CacheMaxSize         int           // Local tier entry cap per cache instance
	CacheTTL             time.Duration // Sliding expiration window
	CacheCleanupInterval time.Duration // Local tier expiry sweep interval
	CacheWarmupLimit     int           // Most-used links loaded per warm-up pass
	CacheWarmupSchedule  string        // Cron spec for periodic warming
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./link_router.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "link_router"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		CacheMaxSize:         getIntEnv("CACHE_MAX_SIZE", 1000),
		CacheTTL:             getDurationEnv("CACHE_TTL", 5*time.Minute),
		CacheCleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		CacheWarmupLimit:     getIntEnv("CACHE_WARMUP_LIMIT", 100),
		CacheWarmupSchedule:  getEnv("CACHE_WARMUP_SCHEDULE", "@every 15m"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a default value.
// Unparseable values fall back to the default.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable value (e.g. "5m", "30s")
// or returns a default value. Unparseable values fall back to the default.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid.
//
// This method checks:
//   - Field format validation (ports, database numbers)
//   - Cross-field dependencies (PostgreSQL configuration requirements)
//   - Cache sizing constraints (positive entry cap and TTL)
//
// The application should call this method after loading configuration and
// before starting to ensure safe operation.
func (c *Config) Validate() error {
	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	// Validate database type
	switch c.DatabaseType {
	case "sqlite", "postgres", "postgresql":
		// Valid database types
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}

	// Validate PostgreSQL config if using PostgreSQL
	if c.DatabaseType == "postgres" || c.DatabaseType == "postgresql" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	}

	// Validate Redis settings if Redis is configured
	if c.RedisAddress != "" {
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be at least 1")
		}
	}

	// Validate cache sizing
	if c.CacheMaxSize < 1 {
		return fmt.Errorf("CACHE_MAX_SIZE must be a positive integer")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be a positive duration")
	}
	if c.CacheCleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be a positive duration")
	}
	if c.CacheWarmupLimit < 0 {
		return fmt.Errorf("CACHE_WARMUP_LIMIT must not be negative")
	}

	return nil
}

// RedisEnabled reports whether a remote cache tier has been configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}
