// Package redis provides the result cache backing idempotent reads.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"-"`
}

// Cache stores raw RPC results with a fixed TTL. Failures degrade to
// cache misses; the dispatch path never fails on cache errors.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{rdb: rdb, ttl: ttl, log: slog.Default()}, nil
}

// Get returns the cached payload for key, or ok=false on miss or error.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores the payload under key with the configured TTL, best-effort.
func (c *Cache) Set(ctx context.Context, key string, val json.RawMessage) {
	if err := c.rdb.Set(ctx, key, []byte(val), c.ttl).Err(); err != nil {
		c.log.Debug("cache set failed", "key", key, "error", err)
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
