package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/useragent"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SearxNGResultItem is one entry of SearxNG's JSON output.
type SearxNGResultItem struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Engine  string  `json:"engine"`
}

// SearxNGResponse is the top level of SearxNG's JSON output.
type SearxNGResponse struct {
	Query               string              `json:"query"`
	NumberOfResults     int                 `json:"number_of_results"`
	Results             []SearxNGResultItem `json:"results"`
	Suggestions         []string            `json:"suggestions,omitempty"`
	UnresponsiveEngines [][]string          `json:"unresponsive_engines,omitempty"`
}

// SearxNG searches a SearxNG instance for "<query> recipe" and returns its
// results as candidates. Pages are fetched concurrently.
type SearxNG struct {
	BaseURL string
	Pages   int
}

// TargetName implements Target.
func (s SearxNG) TargetName() string { return "SearxNG" }

// Fetch implements Target.
func (s SearxNG) Fetch(ctx context.Context, client *http.Client, query string) ([]Result, error) {
	pages := s.Pages
	if pages <= 0 {
		pages = 1
	}

	type pageResult struct {
		page  int
		items []SearxNGResultItem
		err   error
	}

	resultsChan := make(chan pageResult, pages)
	var wg sync.WaitGroup

	for page := 1; page <= pages; page++ {
		wg.Add(1)
		go func(pageNum int) {
			defer wg.Done()
			items, err := s.fetchPage(ctx, client, query+" recipe", pageNum)
			resultsChan <- pageResult{page: pageNum, items: items, err: err}
		}(page)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	pageResults := make(map[int][]SearxNGResultItem)
	var firstErr error
	for result := range resultsChan {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		pageResults[result.page] = result.items
	}
	if len(pageResults) == 0 && firstErr != nil {
		return nil, firstErr
	}

	var results []Result
	for page := 1; page <= pages; page++ {
		for _, item := range pageResults[page] {
			if item.URL == "" || item.Title == "" {
				continue
			}
			results = append(results, Result{URL: item.URL, Title: item.Title, SiteName: hostName(item.URL)})
		}
	}
	slog.Debug("Collected SearxNG candidates", "count", len(results))
	return results, nil
}

func (s SearxNG) fetchPage(ctx context.Context, client *http.Client, query string, pageNum int) ([]SearxNGResultItem, error) {
	apiURL, err := url.Parse(strings.TrimSuffix(s.BaseURL, "/") + "/search")
	if err != nil {
		return nil, fmt.Errorf("error parsing SearxNG base URL: %w", err)
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("pageno", fmt.Sprintf("%d", pageNum))
	apiURL.RawQuery = params.Encode()

	slog.Debug("Fetching page from SearxNG", "page", pageNum, "url", apiURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating SearxNG request: %w", err)
	}
	req.Header.Set("User-Agent", useragent.Bot)

	resp, err := client.Do(req)
	if err != nil {
		logger.LogError("Error fetching from SearxNG page %d: %v", pageNum, err)
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body for page", "page", pageNum, "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.LogError("SearxNG request failed with status %d for page %d: %s", resp.StatusCode, pageNum, string(bodyBytes))
		return nil, fmt.Errorf("SearxNG request failed with status %d", resp.StatusCode)
	}

	var searxNGResp SearxNGResponse
	if err := json.NewDecoder(resp.Body).Decode(&searxNGResp); err != nil {
		logger.LogError("Error decoding SearxNG response for page %d: %v", pageNum, err)
		return nil, err
	}
	return searxNGResp.Results, nil
}

func hostName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
