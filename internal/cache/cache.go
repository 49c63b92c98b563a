// Package cache keeps the unpaginated combo lists (countries, states, cities,
// categories) in Redis so that dropdowns do not hit the database on every
// page load.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"orders-api/internal/config"
	"orders-api/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "combo:"

// ComboCache stores combo lists keyed by entity and parent id.
type ComboCache interface {
	// Get decodes the cached list into dest and reports whether it was found.
	Get(ctx context.Context, entity string, parentID int, dest any) bool
	Set(ctx context.Context, entity string, parentID int, value any) error
	// Invalidate drops every cached list of entity.
	Invalidate(ctx context.Context, entity string) error
}

// Key returns the Redis key of a combo list.
func Key(entity string, parentID int) string {
	return keyPrefix + entity + ":" + strconv.Itoa(parentID)
}

type redisCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, m *metrics.Metrics, logger zerolog.Logger) (ComboCache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return newRedisCache(client, cfg.TTL(), m, logger), client, nil
}

func newRedisCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics, logger zerolog.Logger) *redisCache {
	return &redisCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger.With().Str("component", "combo-cache").Logger(),
	}
}

func (c *redisCache) Get(ctx context.Context, entity string, parentID int, dest any) bool {
	key := Key(entity, parentID)

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		c.observe(entity, false)
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		c.observe(entity, false)
		return false
	}

	c.observe(entity, true)
	return true
}

func (c *redisCache) Set(ctx context.Context, entity string, parentID int, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, Key(entity, parentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, entity string) error {
	pattern := keyPrefix + entity + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug().Str("entity", entity).Msg("combo cache invalidated")
	return nil
}

func (c *redisCache) observe(entity string, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues(entity).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(entity).Inc()
	}
}

type noopCache struct{}

// NewNoop returns a cache that never stores anything.
func NewNoop() ComboCache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string, int, any) bool  { return false }
func (noopCache) Set(context.Context, string, int, any) error { return nil }
func (noopCache) Invalidate(context.Context, string) error    { return nil }
