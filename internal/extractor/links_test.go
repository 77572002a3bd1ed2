package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractRecipeLinksFromPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"recipe here colon", "Get the recipe here: https://example.com/pasta-recipe", []string{"https://example.com/pasta-recipe"}},
		{"full recipe colon", "Full recipe: https://cooking.nytimes.com/recipe/123", []string{"https://cooking.nytimes.com/recipe/123"}},
		{"get the recipe arrow", "Get the recipe → https://seriouseats.com/pizza", []string{"https://seriouseats.com/pizza"}},
		{"recipe link colon", "Recipe link: https://allrecipes.com/recipe/12345", []string{"https://allrecipes.com/recipe/12345"}},
		{"find the recipe at", "Find the recipe at https://myblog.com/carbonara", []string{"https://myblog.com/carbonara"}},
		{"written recipe", "Written recipe: https://example.com/chicken", []string{"https://example.com/chicken"}},
		{"case insensitive", "FULL RECIPE: https://example.com/cake", []string{"https://example.com/cake"}},
		{"trailing period", "Full recipe: https://example.com/cake.", []string{"https://example.com/cake"}},
		{"no phrase", "Check out my video https://youtube.com/watch?v=123", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRecipeLinksFromPatterns(tt.text))
		})
	}
}

func TestExtractRecipeLinksFromPatternsMultiple(t *testing.T) {
	text := `
	Get the recipe here: https://site1.com/recipe1
	Full recipe: https://site2.com/recipe2
	`
	assert.ElementsMatch(t,
		[]string{"https://site1.com/recipe1", "https://site2.com/recipe2"},
		ExtractRecipeLinksFromPatterns(text))
}

func TestHasLinkInBio(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Recipe in bio! 🔗", true},
		{"Full recipe, link in bio", true},
		{"Check my bio for the full recipe", true},
		{"Recipe is in my bio!", true},
		{"Links in the profile above", true},
		{"Get the recipe here: https://example.com", false},
		{"I love biology", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HasLinkInBio(tt.text))
		})
	}
}

// rewriteTransport sends every request to target while leaving the original
// request URL intact, so redirects look like they happen on the real hosts.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = req.URL.Host
	return http.DefaultTransport.RoundTrip(out)
}

func newExpanderServer(t *testing.T) *http.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Host {
		case "bit.ly":
			http.Redirect(w, r, "https://www.seriouseats.com/pasta-recipe?utm_source=yt", http.StatusMovedPermanently)
		case "t.co":
			http.Error(w, "gone", http.StatusGone)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	target, _ := url.Parse(srv.URL)
	return &http.Client{Transport: rewriteTransport{target: target}}
}

func TestHTTPLinkExpander(t *testing.T) {
	e := NewHTTPLinkExpander(newExpanderServer(t), 2*time.Second)
	ctx := context.Background()

	assert.Equal(t, "https://www.seriouseats.com/pasta-recipe", e.Expand(ctx, "https://bit.ly/abc"))
	assert.Equal(t, "https://example.com/x", e.Expand(ctx, "https://example.com/x"), "non-shortener passes through")
	assert.Equal(t, "https://t.co/zzz", e.Expand(ctx, "https://t.co/zzz"), "error status keeps the final URL")
}

func TestExpandAndFilter(t *testing.T) {
	e := NewHTTPLinkExpander(newExpanderServer(t), 2*time.Second)
	got := expandAndFilter(context.Background(), e, []string{
		"https://bit.ly/abc",
		"https://www.instagram.com/chef",
		"https://www.seriouseats.com/pasta-recipe",
		"https://blog.example.com/recipes/soup",
	})
	assert.Equal(t, []string{
		"https://www.seriouseats.com/pasta-recipe",
		"https://blog.example.com/recipes/soup",
	}, got)
}
