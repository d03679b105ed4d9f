package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/landed-cost/internal/models"
)

const keyPrefix = "landedcost:result:"

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache shares results between service instances. Redis expires keys
// after the TTL; reads still check createdAt so clock skew never serves a
// stale entry.
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewRedisCache(client RedisClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("component", "redis_cache"),
	}
}

func Key(url string) string {
	return keyPrefix + url
}

func (c *RedisCache) Get(ctx context.Context, url string) (*models.ProductDetails, bool) {
	key := Key(url)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to read cached result", "url", url, "error", err)
		}
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "url", url, "error", err)
		c.delete(ctx, key)
		return nil, false
	}

	if entry.IsExpired(c.now(), c.ttl) {
		c.delete(ctx, key)
		return nil, false
	}

	return &entry.Details, true
}

func (c *RedisCache) Put(ctx context.Context, url string, details *models.ProductDetails) error {
	entry := models.CacheEntry{
		URL:       url,
		Details:   *details,
		CreatedAt: c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, Key(url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("failed to delete cache entry", "key", key, "error", err)
	}
}
