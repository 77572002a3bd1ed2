package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-extraction-api/internal/useragent"
)

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (r *fakeRenderer) RenderHTML(_ context.Context, _ string) (string, error) {
	r.calls++
	return r.html, r.err
}

func newRecipeSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pasta", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, useragent.Bot, r.UserAgent())
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(tomatoPastaHTML))
	})
	mux.HandleFunc("/old-pasta", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pasta", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>About us</body></html>`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRecipePageFetcherFound(t *testing.T) {
	srv := newRecipeSite(t)
	f := NewRecipePageFetcher(5*time.Second, nil)

	out := f.FetchRecipe(context.Background(), srv.URL+"/pasta")
	require.Equal(t, PageFound, out.Status)
	require.NotNil(t, out.Recipe)
	assert.Equal(t, "Classic Tomato Pasta", out.Recipe.Title)
	assert.Equal(t, srv.URL+"/pasta", out.Recipe.SourceURL)
	assert.NoError(t, out.Err)
}

func TestRecipePageFetcherFollowsRedirects(t *testing.T) {
	srv := newRecipeSite(t)
	f := NewRecipePageFetcher(5*time.Second, nil)

	out := f.FetchRecipe(context.Background(), srv.URL+"/old-pasta")
	require.Equal(t, PageFound, out.Status)
	assert.Equal(t, srv.URL+"/pasta", out.FinalURL)
}

func TestRecipePageFetcherNoRecipe(t *testing.T) {
	srv := newRecipeSite(t)
	f := NewRecipePageFetcher(5*time.Second, nil)

	out := f.FetchRecipe(context.Background(), srv.URL+"/about")
	assert.Equal(t, PageNoRecipe, out.Status)
	assert.Nil(t, out.Recipe)
	assert.ErrorIs(t, out.Err, ErrNoRecipeMarkup)
}

func TestRecipePageFetcherHTTPError(t *testing.T) {
	srv := newRecipeSite(t)
	f := NewRecipePageFetcher(5*time.Second, nil)

	out := f.FetchRecipe(context.Background(), srv.URL+"/missing")
	assert.Equal(t, PageFetchError, out.Status)
	assert.Error(t, out.Err)
}

func TestRecipePageFetcherTimeout(t *testing.T) {
	srv := newRecipeSite(t)
	f := NewRecipePageFetcher(100*time.Millisecond, nil)

	start := time.Now()
	out := f.FetchRecipe(context.Background(), srv.URL+"/slow")
	assert.Equal(t, PageFetchError, out.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRecipePageFetcherRenderFallback(t *testing.T) {
	srv := newRecipeSite(t)

	t.Run("rendered page has recipe", func(t *testing.T) {
		r := &fakeRenderer{html: cookieGraphHTML}
		out := NewRecipePageFetcher(5*time.Second, r).FetchRecipe(context.Background(), srv.URL+"/about")
		require.Equal(t, PageFound, out.Status)
		assert.Equal(t, "Chocolate Chip Cookies", out.Recipe.Title)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("render failure is no recipe", func(t *testing.T) {
		r := &fakeRenderer{err: errors.New("chromium crashed")}
		out := NewRecipePageFetcher(5*time.Second, r).FetchRecipe(context.Background(), srv.URL+"/about")
		assert.Equal(t, PageNoRecipe, out.Status)
	})

	t.Run("static hit skips renderer", func(t *testing.T) {
		r := &fakeRenderer{}
		out := NewRecipePageFetcher(5*time.Second, r).FetchRecipe(context.Background(), srv.URL+"/pasta")
		require.Equal(t, PageFound, out.Status)
		assert.Zero(t, r.calls)
	})
}
