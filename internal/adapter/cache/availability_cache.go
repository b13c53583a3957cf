// Package cache stores availability answers in Redis. Every entry key carries
// the generation it was computed under; invalidation bumps the generation
// counter and old entries expire on their own.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

const (
	keyPrefix     = "availability:"
	generationKey = "availability:gen"
)

var _ ports.AvailabilityCache = (*RedisAvailabilityCache)(nil)

type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

// Generation returns the current generation, zero before the first invalidation.
func (c *RedisAvailabilityCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return gen, nil
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, gen int64, key string) ([]int, bool, error) {
	raw, err := c.client.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, fmt.Errorf("decode cached availability %s: %w", key, err)
	}
	return ids, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, gen int64, key string, roomIDs []int) error {
	body, err := json.Marshal(roomIDs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(gen, key), string(body), c.ttl).Err()
}

// Invalidate starts a new generation.
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, gen, key)
}
