package cache

import (
	"context"
	"log/slog"
	"time"

	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/search"
)

// CachedSearcher remembers non-empty title-search results.
type CachedSearcher struct {
	Next  extractor.Searcher
	Cache Cache
	TTL   time.Duration
}

func NewCachedSearcher(next extractor.Searcher, c Cache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{Next: next, Cache: c, TTL: ttl}
}

func (s *CachedSearcher) Search(ctx context.Context, title, author string, minSimilarity float64, maxResults int) search.Outcome {
	key := SearchKey(title, author, minSimilarity, maxResults)
	if results, ok := s.Cache.GetSearchResults(ctx, key); ok {
		slog.Info("Search cache HIT", "title", title)
		return search.Outcome{Query: search.BuildQuery(title, author), Results: results}
	}

	slog.Info("Search cache MISS", "title", title)
	out := s.Next.Search(ctx, title, author, minSimilarity, maxResults)
	if out.Err == nil && len(out.Results) > 0 {
		s.Cache.Set(ctx, key, out.Results, s.TTL)
	}
	return out
}
