package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/search"
)

// RedisCache is a Redis-backed cache that implements the Cache interface.
// Values are stored as JSON.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache.
func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// getJSON decodes the value at key into dst. Any failure counts as a miss.
func (c *RedisCache) getJSON(ctx context.Context, key string, dst interface{}) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	} else if err != nil {
		logger.LogError("Cache: Redis GET %s failed: %v", key, err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		logger.LogError("Cache: Corrupt value at %s: %v", key, err)
		return false
	}
	return true
}

func (c *RedisCache) GetExtraction(ctx context.Context, key string) (*extractor.Result, bool) {
	var result extractor.Result
	if !c.getJSON(ctx, key, &result) {
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) GetSearchResults(ctx context.Context, key string) ([]search.Result, bool) {
	var results []search.Result
	if !c.getJSON(ctx, key, &results) {
		return nil, false
	}
	return results, true
}

// MGetExtractions fetches all keys in one round trip.
func (c *RedisCache) MGetExtractions(ctx context.Context, keys []string) (map[string]*extractor.Result, error) {
	found := make(map[string]*extractor.Result, len(keys))
	if len(keys) == 0 {
		return found, nil
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, val := range vals {
		s, ok := val.(string)
		if !ok {
			continue
		}
		var result extractor.Result
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			slog.Warn("Skipping corrupt cached extraction", "key", keys[i], "error", err)
			continue
		}
		found[keys[i]] = &result
	}
	return found, nil
}

// Set adds a value to the cache.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.LogError("Cache: Cannot encode value for %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, duration).Err(); err != nil {
		logger.LogError("Cache: Redis SET %s failed: %v", key, err)
	}
}
