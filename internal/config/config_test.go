package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Load()
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "./link_router.db", cfg.DatabasePath)
	assert.Equal(t, "", cfg.RedisAddress)
	assert.Equal(t, 1000, cfg.CacheMaxSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.CacheWarmupLimit)
	assert.Equal(t, "@every 15m", cfg.CacheWarmupSchedule)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_MAX_SIZE", "250")
	t.Setenv("CACHE_TTL", "90s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddress)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 250, cfg.CacheMaxSize)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "not-a-number")
	t.Setenv("CACHE_TTL", "eventually")

	cfg := Load()

	assert.Equal(t, 1000, cfg.CacheMaxSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidatePort(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "not-a-port"
	assert.Error(t, cfg.Validate())

	cfg.Port = "70000"
	assert.Error(t, cfg.Validate())
}

func TestValidateDatabaseType(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseType = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestValidatePostgresRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseType = "postgres"
	require.NoError(t, cfg.Validate())

	cfg.PostgresHost = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.DatabaseType = "postgres"
	cfg.PostgresDB = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.DatabaseType = "postgres"
	cfg.PostgresPort = "abc"
	assert.Error(t, cfg.Validate())
}

func TestValidateRedisSettings(t *testing.T) {
	cfg := validConfig()
	cfg.RedisAddress = "localhost:6379"
	require.NoError(t, cfg.Validate())

	cfg.RedisDB = 16
	assert.Error(t, cfg.Validate())

	cfg.RedisDB = 0
	cfg.RedisPoolSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateCacheSettings(t *testing.T) {
	cfg := validConfig()
	cfg.CacheMaxSize = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.CacheTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.CacheCleanupInterval = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.CacheWarmupLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestRedisEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.RedisEnabled())

	cfg.RedisAddress = "localhost:6379"
	assert.True(t, cfg.RedisEnabled())
}
