// Package redis wraps the go-redis client with the small key-value surface
// the cache layer needs: GET, SETEX, DEL, EXISTS, PING and FLUSHALL.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is a thin wrapper around a Redis connection. Construction does not
// require the server to be reachable; connectivity is established by the
// cache layer's liveness probe so a Redis outage at startup degrades to
// local-only mode instead of failing the process.
type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// NewClient creates a Redis client from the given configuration.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Health checks connectivity with a bounded timeout, for health endpoints.
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Get retrieves the value stored at key. The second return value reports
// whether the key existed; a missing key is not an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetEx stores a value at key with the given TTL.
func (c *Client) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	return c.rdb.SetEX(ctx, key, value, ttl).Err()
}

// Delete removes a key, reporting whether it existed.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Exists checks whether a key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FlushAll removes every key from the server.
func (c *Client) FlushAll(ctx context.Context) error {
	return c.rdb.FlushAll(ctx).Err()
}
