package extractor

import (
	"context"
	"log"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/recipe"
)

// renderAndParse asks the headless renderer for the page and reparses it. A
// render failure is only a missing signal, never a fetch error.
func (f *RecipePageFetcher) renderAndParse(ctx context.Context, pageURL string) (*recipe.Recipe, bool) {
	log.Printf("RecipePageFetcher: Static HTML had no recipe, rendering %s", pageURL)

	html, err := f.Renderer.RenderHTML(ctx, pageURL)
	if err != nil {
		logger.LogError("RecipePageFetcher: Render failed for %s: %v", pageURL, err)
		return nil, false
	}

	r, ok := ParseRecipePage(html, pageURL)
	if ok {
		log.Printf("RecipePageFetcher: Found recipe %q after rendering %s", r.Title, pageURL)
	}
	return r, ok
}
