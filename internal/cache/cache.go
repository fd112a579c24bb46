// Package cache provides the Redis-backed read-through cache used for property reads.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "rental"

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache stores JSON-encoded values in Redis. Redis faults degrade to a cache miss.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewRedisCache connects a Redis client.
func NewRedisCache(cfg Config, logger *zap.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Fetch fills dest from key, calling load on a miss. Concurrent misses for one key share a single load.
func (c *RedisCache) Fetch(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, dest); err == nil {
			return nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

// Invalidate removes keys.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Generation returns the current generation counter of a namespace. List keys embed it, so
// bumping the counter orphans every cached page at once.
func (c *RedisCache) Generation(ctx context.Context, namespace string) int64 {
	n, err := c.client.Get(ctx, generationKey(namespace)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache generation read failed", zap.String("namespace", namespace), zap.Error(err))
	}
	return n
}

// BumpGeneration invalidates all keys built from the namespace's generation.
func (c *RedisCache) BumpGeneration(ctx context.Context, namespace string) {
	if err := c.client.Incr(ctx, generationKey(namespace)).Err(); err != nil {
		c.logger.Warn("cache generation bump failed", zap.String("namespace", namespace), zap.Error(err))
	}
}

// Ping satisfies health.Pinger.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// EntityKey builds the key of a single cached entity.
func EntityKey(entity, id string) string {
	return keyPrefix + ":" + entity + ":" + id
}

// QueryKey builds a stable key for a list query: the md5 of its sorted parameters, scoped by generation.
func QueryKey(namespace string, generation int64, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return fmt.Sprintf("%s:%s:g%d:%s", keyPrefix, namespace, generation, hex.EncodeToString(hash[:]))
}

func generationKey(namespace string) string {
	return keyPrefix + ":" + namespace + ":generation"
}
