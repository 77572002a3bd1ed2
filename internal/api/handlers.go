// Package api provides the HTTP handlers for the recipe extraction API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"recipe-extraction-api/internal/cache"
	"recipe-extraction-api/internal/config"
	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/metrics"
	"recipe-extraction-api/internal/search"
	"recipe-extraction-api/internal/storage"
	"recipe-extraction-api/internal/worker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxBatchRequests = 10

	defaultMinSimilarity = 0.4
	defaultMaxResults    = 5
)

// Extractor runs the extraction pipeline.
type Extractor interface {
	Extract(ctx context.Context, req extractor.Request) *extractor.Result
}

// Store is the recipe persistence the handlers need.
type Store interface {
	CreateFromExtraction(ctx context.Context, res *extractor.Result) (*storage.Recipe, error)
	CreateManual(ctx context.Context, in storage.ManualRecipe) (*storage.Recipe, error)
	Update(ctx context.Context, id string, upd storage.RecipeUpdate) (*storage.Recipe, error)
	Get(ctx context.Context, id string) (*storage.Recipe, error)
	List(ctx context.Context, page, pageSize int) ([]storage.Summary, int, error)
	Search(ctx context.Context, q storage.SearchQuery) ([]storage.Summary, int, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]storage.Category, error)
}

// RecipeHandler holds dependencies for the API handlers. Cache and Metrics
// may be nil.
type RecipeHandler struct {
	Config   *config.AppConfig
	Pipeline Extractor
	Store    Store
	Search   extractor.Searcher
	Cache    cache.Cache
	Pool     *worker.WorkerPool
	Metrics  *metrics.Metrics
}

// NewRecipeHandler creates a new RecipeHandler with its dependencies.
func NewRecipeHandler(
	appConfig *config.AppConfig,
	pipeline Extractor,
	store Store,
	searcher extractor.Searcher,
	appCache cache.Cache,
	pool *worker.WorkerPool,
	m *metrics.Metrics,
) *RecipeHandler {
	return &RecipeHandler{
		Config:   appConfig,
		Pipeline: pipeline,
		Store:    store,
		Search:   searcher,
		Cache:    appCache,
		Pool:     pool,
		Metrics:  m,
	}
}

// Routes registers every endpoint on a new ServeMux.
func (h *RecipeHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/extract", h.HandleExtract)
	mux.HandleFunc("POST /api/extract/batch", h.HandleExtractBatch)
	mux.HandleFunc("POST /api/recipes", h.HandleCreateRecipe)
	mux.HandleFunc("GET /api/recipes", h.HandleListRecipes)
	mux.HandleFunc("GET /api/recipes/search", h.HandleSearchRecipes)
	mux.HandleFunc("GET /api/recipes/{id}", h.HandleGetRecipe)
	mux.HandleFunc("PATCH /api/recipes/{id}", h.HandleUpdateRecipe)
	mux.HandleFunc("DELETE /api/recipes/{id}", h.HandleDeleteRecipe)
	mux.HandleFunc("GET /api/categories", h.HandleCategories)
	mux.HandleFunc("GET /api/search", h.HandleTitleSearch)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.Handle("GET /metrics", h.Metrics.Handler())
	return mux
}

// extract consults the cache before running the pipeline; only successes are
// cached.
func (h *RecipeHandler) extract(ctx context.Context, req extractor.Request) *extractor.Result {
	key := cache.ExtractionKey(req)
	if h.Cache != nil {
		if res, found := h.Cache.GetExtraction(ctx, key); found {
			slog.Info("Extraction cache HIT", "url", req.URL)
			return res
		}
	}
	res := h.Pipeline.Extract(ctx, req)
	h.remember(ctx, key, res)
	return res
}

func (h *RecipeHandler) remember(ctx context.Context, key string, res *extractor.Result) {
	if h.Cache == nil || res == nil || !res.Success {
		return
	}
	h.Cache.Set(ctx, key, res, h.Config.ExtractionCacheTTL)
}

func successMessage(res *extractor.Result) string {
	switch res.Method {
	case extractor.MethodSchemaOrg:
		site := res.RecipeSiteName
		if site == "" {
			site = "recipe page"
		}
		return "Recipe extracted from " + site
	case extractor.MethodLLMTranscript:
		return "Recipe extracted from video content (AI-powered)"
	default:
		return "Recipe saved"
	}
}

func (h *RecipeHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req extractor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.respondWithError(w, http.StatusBadRequest, "url is required")
		return
	}
	slog.Info("Handling extract request", "url", req.URL,
		"has_caption", req.ManualCaption != "", "has_recipe_url", req.ManualRecipeURL != "")

	res := h.extract(r.Context(), req)
	resp := ExtractResponsePayload{
		Success:         res.Success,
		Method:          string(res.Method),
		Confidence:      res.Confidence,
		Error:           res.Error,
		FoundRecipeURLs: res.FoundRecipeURLs,
	}
	if resp.FoundRecipeURLs == nil {
		resp.FoundRecipeURLs = []string{}
	}

	if !res.Success {
		resp.Message = res.Error
		if resp.Message == "" {
			resp.Message = "Extraction failed"
		}
		h.respondJSON(w, http.StatusOK, resp)
		return
	}

	saved, err := h.Store.CreateFromExtraction(r.Context(), res)
	if err != nil {
		slog.Error("Failed to save extracted recipe", "url", req.URL, "error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to save recipe")
		return
	}
	resp.Recipe = saved
	resp.Message = successMessage(res)
	h.respondJSON(w, http.StatusOK, resp)
}

// HandleExtractBatch runs up to maxBatchRequests extractions through the
// worker pool. Results keep request order and are not persisted.
func (h *RecipeHandler) HandleExtractBatch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload BatchRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}
	if len(payload.Requests) == 0 {
		h.respondWithError(w, http.StatusBadRequest, "requests is required")
		return
	}
	if len(payload.Requests) > maxBatchRequests {
		h.respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many requests provided. Maximum allowed: %d", maxBatchRequests))
		return
	}
	for i, req := range payload.Requests {
		if strings.TrimSpace(req.URL) == "" {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("requests[%d].url is required", i))
			return
		}
	}

	ctx := r.Context()
	results := make([]*extractor.Result, len(payload.Requests))
	keys := make([]string, len(payload.Requests))
	for i, req := range payload.Requests {
		keys[i] = cache.ExtractionKey(req)
	}

	// --- Batched Cache Lookup ---
	hits := 0
	if h.Cache != nil {
		found, err := h.Cache.MGetExtractions(ctx, keys)
		if err != nil {
			slog.Warn("Batched cache lookup failed, extracting everything", "error", err)
		}
		for i, key := range keys {
			if res, ok := found[key]; ok {
				results[i] = res
				hits++
			}
		}
	}
	slog.Info("Batch cache summary", "total", len(keys), "hits", hits, "misses", len(keys)-hits)

	// --- Dispatch misses to the worker pool ---
	var wg sync.WaitGroup
	for i, req := range payload.Requests {
		if results[i] != nil {
			continue
		}
		resultChan, err := h.Pool.Submit(ctx, req)
		if err != nil {
			slog.Error("Could not queue extraction", "url", req.URL, "error", err)
			results[i] = extractor.Failed(extractor.DetectPlatform(req.URL), "extraction not started: "+err.Error())
			continue
		}
		wg.Add(1)
		go func(i int, resultChan <-chan *extractor.Result) {
			defer wg.Done()
			res := <-resultChan
			h.remember(ctx, keys[i], res)
			results[i] = res
		}(i, resultChan)
	}
	wg.Wait()

	if ctx.Err() != nil {
		slog.Warn("Context cancelled, not writing response", "path", r.URL.Path)
		return
	}

	var resp BatchResponsePayload
	resp.RequestDetails.Requested = len(payload.Requests)
	resp.RequestDetails.Processed = len(results)
	resp.RequestDetails.CacheHits = hits
	resp.Results = results
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *RecipeHandler) HandleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var in storage.ManualRecipe
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		h.respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}
	saved, err := h.Store.CreateManual(r.Context(), in)
	if err != nil {
		slog.Error("Failed to create recipe", "error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create recipe")
		return
	}
	h.respondJSON(w, http.StatusOK, saved)
}

// queryInt parses an optional integer query parameter within [lo, hi].
func queryInt(r *http.Request, name string, fallback, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

func pagination(r *http.Request) (page, pageSize int, err error) {
	if page, err = queryInt(r, "page", 1, 1, 1<<30); err != nil {
		return 0, 0, err
	}
	if pageSize, err = queryInt(r, "page_size", 20, 1, 100); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func (h *RecipeHandler) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pagination(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipes, total, err := h.Store.List(r.Context(), page, pageSize)
	if err != nil {
		slog.Error("Failed to list recipes", "error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list recipes")
		return
	}
	h.respondJSON(w, http.StatusOK, PaginatedRecipes{
		Recipes:    recipes,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *RecipeHandler) HandleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pagination(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxTime, err := queryInt(r, "max_time", 0, 0, 1<<30)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	query := storage.SearchQuery{
		Text:        q.Get("q"),
		Ingredients: splitList(q.Get("ingredients")),
		Categories:  splitList(q.Get("categories")),
		Tags:        splitList(q.Get("tags")),
		Difficulty:  q.Get("difficulty"),
		MaxTimeMins: maxTime,
		Page:        page,
		PageSize:    pageSize,
	}
	recipes, total, err := h.Store.Search(r.Context(), query)
	if err != nil {
		slog.Error("Failed to search recipes", "error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to search recipes")
		return
	}
	h.respondJSON(w, http.StatusOK, SearchResponsePayload{Recipes: recipes, Total: total, Query: query.Text})
}

func (h *RecipeHandler) storeError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Recipe not found")
		return
	}
	slog.Error("Store operation failed", "action", action, "error", err)
	h.respondWithError(w, http.StatusInternalServerError, "Failed to "+action+" recipe")
}

func (h *RecipeHandler) HandleGetRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, "load", err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

func (h *RecipeHandler) HandleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var upd storage.RecipeUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		h.respondWithError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	rec, err := h.Store.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		h.storeError(w, "update", err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

func (h *RecipeHandler) HandleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.storeError(w, "delete", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted"})
}

// HandleCategories returns every category grouped by type.
func (h *RecipeHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.Categories(r.Context())
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	grouped := make(map[string][]storage.Category)
	for _, c := range categories {
		grouped[c.Type] = append(grouped[c.Type], c)
	}
	h.respondJSON(w, http.StatusOK, grouped)
}

// HandleTitleSearch exposes the title-similarity search on its own.
func (h *RecipeHandler) HandleTitleSearch(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		h.respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}
	maxResults, err := queryInt(r, "max_results", defaultMaxResults, 1, 20)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	minSimilarity := defaultMinSimilarity
	if raw := r.URL.Query().Get("min_similarity"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			h.respondWithError(w, http.StatusBadRequest, "min_similarity must be a number between 0 and 1")
			return
		}
		minSimilarity = v
	}
	if h.Search == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Title search is not configured")
		return
	}

	author := r.URL.Query().Get("author")
	slog.Info("Handling title search", "title", title, "author", author)
	out := h.Search.Search(r.Context(), title, author, minSimilarity, maxResults)

	resp := TitleSearchResponsePayload{Query: out.Query, Results: out.Results}
	if resp.Results == nil {
		resp.Results = []search.Result{}
	}
	if len(out.Errors) > 0 {
		resp.Errors = make(map[string]string, len(out.Errors))
		for target, err := range out.Errors {
			resp.Errors[target] = err.Error()
		}
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
		h.respondJSON(w, http.StatusBadGateway, resp)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *RecipeHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *RecipeHandler) respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func (h *RecipeHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, map[string]string{"error": message})
}
