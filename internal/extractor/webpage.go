package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocolly/colly/v2"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/useragent"
)

// PageStatus classifies the result of fetching a candidate recipe page.
type PageStatus int

const (
	// PageFound means the page was fetched and carried a Recipe.
	PageFound PageStatus = iota
	// PageNoRecipe means the page was fetched but had no Recipe markup.
	PageNoRecipe
	// PageFetchError means the page could not be fetched.
	PageFetchError
)

func (s PageStatus) String() string {
	switch s {
	case PageFound:
		return "found"
	case PageNoRecipe:
		return "no_recipe"
	default:
		return "fetch_error"
	}
}

// PageOutcome is the result of a recipe page fetch. Recipe is set only for PageFound.
type PageOutcome struct {
	Status   PageStatus
	Recipe   *recipe.Recipe
	FinalURL string
	Err      error
}

// PageFetcher fetches a URL and parses its schema.org/Recipe.
type PageFetcher interface {
	FetchRecipe(ctx context.Context, pageURL string) PageOutcome
}

// PageRenderer returns a page's HTML after client-side rendering.
type PageRenderer interface {
	RenderHTML(ctx context.Context, pageURL string) (string, error)
}

// RecipePageFetcher downloads pages with colly and parses their JSON-LD. When
// Renderer is set, pages whose static HTML has no Recipe are rendered and
// parsed again.
type RecipePageFetcher struct {
	Timeout  time.Duration
	Renderer PageRenderer
}

// NewRecipePageFetcher creates a RecipePageFetcher. renderer may be nil.
func NewRecipePageFetcher(timeout time.Duration, renderer PageRenderer) *RecipePageFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RecipePageFetcher{Timeout: timeout, Renderer: renderer}
}

// FetchRecipe fetches pageURL, following redirects, and reports what it found.
func (f *RecipePageFetcher) FetchRecipe(ctx context.Context, pageURL string) PageOutcome {
	log.Printf("RecipePageFetcher: Fetching %s", pageURL)

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(useragent.Bot),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.Timeout)

	var (
		body     []byte
		finalURL = pageURL
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL.String()
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status_code=%d: %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		logger.LogError("RecipePageFetcher: Error fetching %s: %v", pageURL, fetchErr)
		return PageOutcome{Status: PageFetchError, FinalURL: finalURL, Err: fetchErr}
	}

	if r, ok := ParseRecipePage(string(body), finalURL); ok {
		log.Printf("RecipePageFetcher: Found recipe %q at %s", r.Title, finalURL)
		return PageOutcome{Status: PageFound, Recipe: r, FinalURL: finalURL}
	}

	if f.Renderer != nil {
		if r, ok := f.renderAndParse(ctx, finalURL); ok {
			return PageOutcome{Status: PageFound, Recipe: r, FinalURL: finalURL}
		}
	}

	log.Printf("RecipePageFetcher: No schema.org/Recipe at %s", finalURL)
	return PageOutcome{Status: PageNoRecipe, FinalURL: finalURL, Err: ErrNoRecipeMarkup}
}
