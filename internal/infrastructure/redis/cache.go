package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notification-feed/internal/domain/service"

	"github.com/redis/go-redis/v9"
)

// Cache is the time-bound key/value store behind the response, unread-count
// and entitlement caches
type Cache struct {
	client *redis.Client
}

// NewCache creates a new Redis-backed cache
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

var _ service.Cache = (*Cache)(nil)

// Get returns the value stored at key. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache key: %w", err)
	}
	return data, true, nil
}

// Set stores value at key for ttl
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}
	return nil
}

// Invalidate deletes key
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	return nil
}
