package cache

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"

	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/search"
)

const shardCount = 64 // must be a power of 2

// ShardedMemoryCache spreads keys over independent MemoryCaches by xxhash.
type ShardedMemoryCache struct {
	shards []*MemoryCache
}

func NewShardedMemoryCache(defaultExpiration, cleanupInterval time.Duration) *ShardedMemoryCache {
	c := &ShardedMemoryCache{
		shards: make([]*MemoryCache, shardCount),
	}
	for i := 0; i < shardCount; i++ {
		c.shards[i] = NewMemoryCache(defaultExpiration, cleanupInterval)
	}
	return c
}

func (c *ShardedMemoryCache) getShard(key string) *MemoryCache {
	return c.shards[xxhash.Sum64String(key)&(shardCount-1)]
}

func (c *ShardedMemoryCache) GetExtraction(ctx context.Context, key string) (*extractor.Result, bool) {
	return c.getShard(key).GetExtraction(ctx, key)
}

func (c *ShardedMemoryCache) GetSearchResults(ctx context.Context, key string) ([]search.Result, bool) {
	return c.getShard(key).GetSearchResults(ctx, key)
}

func (c *ShardedMemoryCache) MGetExtractions(ctx context.Context, keys []string) (map[string]*extractor.Result, error) {
	found := make(map[string]*extractor.Result, len(keys))
	for _, key := range keys {
		if result, ok := c.GetExtraction(ctx, key); ok {
			found[key] = result
		}
	}
	return found, nil
}

func (c *ShardedMemoryCache) Set(ctx context.Context, key string, value interface{}, duration time.Duration) {
	c.getShard(key).Set(ctx, key, value, duration)
}
