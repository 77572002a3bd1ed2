package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/search"
)

// MemoryCache is an in-memory cache that implements the Cache interface.
// Values are stored as-is, so callers must not mutate what they get back.
type MemoryCache struct {
	client *cache.Cache
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		client: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *MemoryCache) GetExtraction(_ context.Context, key string) (*extractor.Result, bool) {
	if val, found := c.client.Get(key); found {
		if result, ok := val.(*extractor.Result); ok {
			return result, true
		}
	}
	return nil, false
}

func (c *MemoryCache) GetSearchResults(_ context.Context, key string) ([]search.Result, bool) {
	if val, found := c.client.Get(key); found {
		if results, ok := val.([]search.Result); ok {
			return results, true
		}
	}
	return nil, false
}

func (c *MemoryCache) MGetExtractions(ctx context.Context, keys []string) (map[string]*extractor.Result, error) {
	found := make(map[string]*extractor.Result, len(keys))
	for _, key := range keys {
		if result, ok := c.GetExtraction(ctx, key); ok {
			found[key] = result
		}
	}
	return found, nil
}

// Set adds a value to the cache.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, duration time.Duration) {
	c.client.Set(key, value, duration)
}
