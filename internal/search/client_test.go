package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="card"><a href="/recipes/1/chicken-tikka-masala"><h3>Chicken Tikka Masala</h3></a></div>
<div class="card"><a href="https://other.example.com/tikka"><h3>Easy Chicken Tikka</h3></a></div>
<div class="card"><a href="/recipes/1/chicken-tikka-masala"><h3>Chicken Tikka Masala</h3></a></div>
<div class="card"><a><h3>No link here</h3></a></div>
<div class="card"><a href="/recipes/2/brownies"><h3>Fudgy Brownies</h3></a></div>
</body></html>`

func newSiteServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSite(name string, srv *httptest.Server) Site {
	return Site{
		Name:           name,
		SearchURL:      srv.URL + "/search?q=%s",
		ResultSelector: "div.card",
		TitleSelector:  "h3",
		BaseURL:        srv.URL,
	}
}

func TestClientSearch_RanksAndIsolatesFailures(t *testing.T) {
	good := newSiteServer(t, http.StatusOK, resultsPage, nil)
	bad := newSiteServer(t, http.StatusInternalServerError, "boom", nil)

	c := &Client{
		Targets:    []Target{testSite("Good", good), testSite("Bad", bad)},
		HTTPClient: good.Client(),
		Timeout:    2 * time.Second,
	}

	out := c.Search(context.Background(), "Chicken Tikka Masala", "", 0.3, 10)

	require.NoError(t, out.Err)
	require.Contains(t, out.Errors, "Bad")
	assert.NotContains(t, out.Errors, "Good")

	require.Len(t, out.Results, 2)
	assert.Equal(t, good.URL+"/recipes/1/chicken-tikka-masala", out.Results[0].URL)
	assert.Equal(t, 1.0, out.Results[0].SimilarityScore)
	assert.Equal(t, "Good", out.Results[0].SiteName)
	assert.Equal(t, "https://other.example.com/tikka", out.Results[1].URL)
	assert.Less(t, out.Results[1].SimilarityScore, 1.0)
}

func TestClientSearch_AllTargetsFail(t *testing.T) {
	bad := newSiteServer(t, http.StatusServiceUnavailable, "", nil)
	c := &Client{Targets: []Target{testSite("Bad", bad)}, HTTPClient: bad.Client(), Timeout: time.Second}

	out := c.Search(context.Background(), "Chicken Tikka Masala", "", 0.3, 10)

	assert.ErrorIs(t, out.Err, ErrAllTargetsFailed)
	assert.Empty(t, out.Results)
}

func TestClientSearch_ShortQueryMakesNoCalls(t *testing.T) {
	var hits int32
	srv := newSiteServer(t, http.StatusOK, resultsPage, &hits)
	c := &Client{Targets: []Target{testSite("Good", srv)}, HTTPClient: srv.Client(), Timeout: time.Second}

	out := c.Search(context.Background(), "#shorts 🍝", "", 0.3, 10)

	assert.Empty(t, out.Results)
	assert.NoError(t, out.Err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestClientSearch_SlowTargetTimesOut(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	good := newSiteServer(t, http.StatusOK, resultsPage, nil)

	c := &Client{
		Targets:    []Target{testSite("Slow", slow), testSite("Good", good)},
		HTTPClient: &http.Client{},
		Timeout:    100 * time.Millisecond,
	}

	start := time.Now()
	out := c.Search(context.Background(), "Chicken Tikka Masala", "", 0.3, 10)

	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, out.Errors, "Slow")
	assert.NotEmpty(t, out.Results)
}

func TestRank(t *testing.T) {
	candidates := []Result{
		{URL: "u1", Title: "Pasta Carbonara"},
		{URL: "u2", Title: "Spaghetti Carbonara"},
		{URL: "u1", Title: "Pasta Carbonara"},
		{URL: "u3", Title: "Chocolate Cake"},
	}

	ranked := Rank("Pasta Carbonara", candidates, 0.3, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "u1", ranked[0].URL)
	assert.Equal(t, "u2", ranked[1].URL)

	assert.Len(t, Rank("Pasta Carbonara", candidates, 0.3, 1), 1)
	assert.Empty(t, Rank("Pasta Carbonara", candidates, 1.1, 10))
}

func TestSearxNGTarget(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		queries <- r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"x","results":[
			{"url":"https://www.seriouseats.com/pasta-carbonara","title":"Pasta Carbonara","score":1.2,"engine":"duckduckgo"},
			{"url":"","title":"missing url"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	results, err := SearxNG{BaseURL: srv.URL + "/"}.Fetch(context.Background(), srv.Client(), "Pasta Carbonara")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(<-queries, " recipe"))
	require.Len(t, results, 1)
	assert.Equal(t, "seriouseats.com", results[0].SiteName)
}

func TestNewClient_AddsSearxNGWhenConfigured(t *testing.T) {
	assert.Len(t, NewClient(nil, 0, "").Targets, len(DefaultSites))
	assert.Len(t, NewClient(nil, 0, "http://searx.local").Targets, len(DefaultSites)+1)
}
