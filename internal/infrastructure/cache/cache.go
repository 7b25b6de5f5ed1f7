// Package cache is a Redis-backed read-through cache. It backs the tenant-agnostic
// geocoding cache described in spec §5 ("an in-memory geocoding cache ... is a
// tenant-agnostic read-through cache with string keys; concurrent readers are safe;
// writes use last-writer-wins"). The Predictor does not use it; it reads DemandPatterns
// from the Store directly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get/GetJSON when the key is absent, so callers can distinguish a
// cache miss (fall through to the Store/geocoder) from a real Redis failure.
var ErrMiss = errors.New("cache: key not found")

// Cache wraps a Redis client with a namespace prefix.
type Cache struct {
	client *redis.Client
	prefix string
}

// New constructs a Cache from a parsed redis:// URL.
func New(redisURL, prefix string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Cache{client: client, prefix: prefix}, nil
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get retrieves a string value, returning ErrMiss on a cache miss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// Set stores a string value with ttl. ttl of 0 means no expiration. Concurrent writers
// to the same key are last-writer-wins, matching the geocoding cache's documented
// contract (§5).
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// GetJSON retrieves and unmarshals a JSON value, returning ErrMiss on a cache miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("cache get json: unmarshal: %w", err)
	}
	return nil
}

// SetJSON marshals and stores a JSON value with ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache set json: marshal: %w", err)
	}
	return c.Set(ctx, key, string(raw), ttl)
}

// Health reports whether the Redis connection is reachable.
func (c *Cache) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
