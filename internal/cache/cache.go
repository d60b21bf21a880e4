// Package cache stores rendered GET responses in Redis.
//
// Entries are never deleted one by one. Every key embeds a generation number
// kept under "<prefix>:gen"; a successful write bumps the generation, which
// orphans all earlier entries until their TTL expires.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a generation-scoped response cache.
type Cache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// New creates a Cache. client is usually a *redis.Client.
func New(client redis.Cmdable, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// NewClient connects to Redis at addr and verifies it answers.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *Cache) generationKey() string {
	return c.prefix + ":gen"
}

// Generation returns the current generation; 0 before the first write.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *Cache) entryKey(generation int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, generation, key)
}

// Get returns the cached value for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}

	value, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key in the current generation.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	gen, err := c.Generation(ctx)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.entryKey(gen, key), string(value), c.ttl).Err()
}

// Invalidate starts a new generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}
