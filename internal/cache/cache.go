// Package cache keeps recent extraction and title-search results in memory
// or in Redis.
package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"

	"recipe-extraction-api/internal/config"
	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/search"
	"recipe-extraction-api/internal/urlnorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is the interface for a cache.
type Cache interface {
	GetExtraction(ctx context.Context, key string) (*extractor.Result, bool)
	GetSearchResults(ctx context.Context, key string) ([]search.Result, bool)
	// MGetExtractions returns the hits among keys; misses are absent.
	MGetExtractions(ctx context.Context, keys []string) (map[string]*extractor.Result, error)
	Set(ctx context.Context, key string, value interface{}, duration time.Duration)
}

// New builds the backend named by CACHE_BACKEND.
func New(ctx context.Context, appConfig *config.AppConfig) (Cache, error) {
	switch strings.ToLower(appConfig.CacheBackend) {
	case "redis":
		rc := NewRedisCache(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect redis at %s: %w", appConfig.RedisAddr, err)
		}
		log.Printf("Cache: Using Redis at %s", appConfig.RedisAddr)
		return rc, nil
	case "", "memory":
		return NewShardedMemoryCache(appConfig.ExtractionCacheTTL, 2*appConfig.ExtractionCacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", appConfig.CacheBackend)
	}
}

func hashKey(parts ...string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "\x00")), 16)
}

// ExtractionKey identifies an extraction request. Equivalent URLs (tracking
// parameters, share text, short hosts) map to the same key.
func ExtractionKey(req extractor.Request) string {
	recipeURL := strings.TrimSpace(req.ManualRecipeURL)
	if recipeURL != "" {
		recipeURL = urlnorm.Normalize(recipeURL)
	}
	return "extraction:" + hashKey(urlnorm.Normalize(req.URL), strings.TrimSpace(req.ManualCaption), recipeURL)
}

// SearchKey identifies a title search.
func SearchKey(title, author string, minSimilarity float64, maxResults int) string {
	return "search:" + hashKey(search.BuildQuery(title, author), title,
		strconv.FormatFloat(minSimilarity, 'f', 2, 64), strconv.Itoa(maxResults))
}
