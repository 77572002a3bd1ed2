// Package search finds recipe pages on recipe sites by video title and ranks
// them by keyword similarity.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"recipe-extraction-api/internal/logger"
)

// ErrAllTargetsFailed is reported when no search target answered.
var ErrAllTargetsFailed = errors.New("all search targets failed")

// Result is a ranked search candidate.
type Result struct {
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	SiteName        string  `json:"site_name"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Outcome is the result of one search. Errors holds the per-target failures;
// Err is set only when every target failed.
type Outcome struct {
	Query   string
	Results []Result
	Errors  map[string]error
	Err     error
}

// Target is one searchable source of candidates.
type Target interface {
	TargetName() string
	Fetch(ctx context.Context, client *http.Client, query string) ([]Result, error)
}

// Client fans a query out to every target concurrently.
type Client struct {
	Targets    []Target
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a client over DefaultSites, plus a SearxNG target when
// searxngURL is set.
func NewClient(httpClient *http.Client, timeout time.Duration, searxngURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	targets := make([]Target, 0, len(DefaultSites)+1)
	for _, s := range DefaultSites {
		targets = append(targets, s)
	}
	if searxngURL != "" {
		targets = append(targets, SearxNG{BaseURL: searxngURL, Pages: 1})
	}
	return &Client{Targets: targets, HTTPClient: httpClient, Timeout: timeout}
}

type targetResult struct {
	name    string
	results []Result
	err     error
}

// Search queries every target for the cleaned title (plus author) and
// returns candidates scoring at least minSimilarity against title, best
// first, deduplicated by URL and capped at maxResults.
func (c *Client) Search(ctx context.Context, title, author string, minSimilarity float64, maxResults int) Outcome {
	query := BuildQuery(title, author)
	outcome := Outcome{Query: query}
	if len([]rune(query)) < 3 {
		slog.Debug("Search query too short, skipping", "title", title)
		return outcome
	}

	slog.Info("Searching recipe sites", "query", query, "targets", len(c.Targets))

	resultsChan := make(chan targetResult, len(c.Targets))
	var wg sync.WaitGroup
	for _, t := range c.Targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			tctx, cancel := context.WithTimeout(ctx, c.Timeout)
			defer cancel()
			results, err := t.Fetch(tctx, c.HTTPClient, query)
			resultsChan <- targetResult{name: t.TargetName(), results: results, err: err}
		}(t)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var all []Result
	for tr := range resultsChan {
		if tr.err != nil {
			logger.LogError("Search: Error searching %s: %v", tr.name, tr.err)
			if outcome.Errors == nil {
				outcome.Errors = make(map[string]error)
			}
			outcome.Errors[tr.name] = tr.err
			continue
		}
		all = append(all, tr.results...)
	}

	if len(c.Targets) > 0 && len(outcome.Errors) == len(c.Targets) {
		outcome.Err = fmt.Errorf("%w (%d targets)", ErrAllTargetsFailed, len(c.Targets))
	}

	outcome.Results = Rank(title, all, minSimilarity, maxResults)
	slog.Info("Search complete", "query", query, "candidates", len(all), "results", len(outcome.Results), "failed_targets", len(outcome.Errors))
	return outcome
}

// Rank scores candidates against title, drops those below minSimilarity,
// sorts best first, removes repeated URLs and truncates to maxResults.
func Rank(title string, candidates []Result, minSimilarity float64, maxResults int) []Result {
	filtered := make([]Result, 0, len(candidates))
	for _, r := range candidates {
		r.SimilarityScore = Similarity(title, r.Title)
		if r.SimilarityScore >= minSimilarity {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SimilarityScore > filtered[j].SimilarityScore
	})

	seen := make(map[string]struct{}, len(filtered))
	unique := make([]Result, 0, len(filtered))
	for _, r := range filtered {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		unique = append(unique, r)
	}

	if maxResults > 0 && len(unique) > maxResults {
		unique = unique[:maxResults]
	}
	return unique
}
