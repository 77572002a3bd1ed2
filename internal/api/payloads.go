package api

import (
	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/search"
	"recipe-extraction-api/internal/storage"
)

// ExtractResponsePayload answers POST /api/extract.
type ExtractResponsePayload struct {
	Success         bool            `json:"success"`
	Method          string          `json:"method"`
	Confidence      float64         `json:"confidence"`
	Error           string          `json:"error,omitempty"`
	Recipe          *storage.Recipe `json:"recipe,omitempty"`
	FoundRecipeURLs []string        `json:"found_recipe_urls"`
	Message         string          `json:"message"`
}

type BatchRequestPayload struct {
	Requests []extractor.Request `json:"requests"`
}

type BatchResponsePayload struct {
	RequestDetails struct {
		Requested int `json:"requested"`
		Processed int `json:"processed"`
		CacheHits int `json:"cache_hits"`
	} `json:"request_details"`
	Results []*extractor.Result `json:"results"`
}

type PaginatedRecipes struct {
	Recipes    []storage.Summary `json:"recipes"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type SearchResponsePayload struct {
	Recipes []storage.Summary `json:"recipes"`
	Total   int               `json:"total"`
	Query   string            `json:"query,omitempty"`
}

// TitleSearchResponsePayload answers GET /api/search.
type TitleSearchResponsePayload struct {
	Query   string            `json:"query"`
	Results []search.Result   `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}
