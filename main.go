// Package main is the recipe extraction service and its command-line tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"recipe-extraction-api/internal/api"
	"recipe-extraction-api/internal/browser"
	"recipe-extraction-api/internal/cache"
	"recipe-extraction-api/internal/config"
	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/llm"
	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/metrics"
	"recipe-extraction-api/internal/search"
	"recipe-extraction-api/internal/storage"
	"recipe-extraction-api/internal/taxonomy"
	"recipe-extraction-api/internal/utils"
	"recipe-extraction-api/internal/worker"
)

const (
	Version = "0.3.0"
	appName = "recipe-extraction-api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Extract structured recipes from cooking videos, captions and recipe pages",
		Long: `Turns a YouTube video, an Instagram post or a recipe page URL into a
structured recipe. Video descriptions, pinned comments and title search are
tried before falling back to LLM parsing of transcripts and captions.

Running without a subcommand starts the HTTP API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(serveCmd(&logLevel), extractCmd(&logLevel), searchCmd(&logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func serveCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *logLevel)
		},
	}
}

func extractCmd(logLevel *string) *cobra.Command {
	var (
		caption   string
		recipeURL string
		save      bool
	)
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract one recipe and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, *logLevel, save)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.pipeline.Extract(ctx, extractor.Request{
				URL:             args[0],
				ManualCaption:   caption,
				ManualRecipeURL: recipeURL,
			})
			if save && res.Success {
				saved, err := a.repo.CreateFromExtraction(ctx, res)
				if err != nil {
					return fmt.Errorf("save recipe: %w", err)
				}
				log.Printf("Saved recipe %s (%s)", saved.ID, saved.Title)
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Caption text to use instead of fetching it")
	cmd.Flags().StringVar(&recipeURL, "recipe-url", "", "Recipe page URL that takes priority over the source")
	cmd.Flags().BoolVar(&save, "save", false, "Store a successful extraction in the database")
	return cmd
}

func searchCmd(logLevel *string) *cobra.Command {
	var (
		author        string
		minSimilarity float64
		maxResults    int
	)
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search recipe sites for a title and print ranked matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := loadConfig(*logLevel)
			if err != nil {
				return err
			}
			client := search.NewClient(newHTTPClient(appConfig.SearchTimeout+5*time.Second), appConfig.SearchTimeout, appConfig.SearxNGURL)
			out := client.Search(cmd.Context(), args[0], author, minSimilarity, maxResults)
			for target, err := range out.Errors {
				log.Printf("Warning: search target %s failed: %v", target, err)
			}
			if out.Err != nil {
				return out.Err
			}
			return printJSON(cmd.OutOrStdout(), out.Results)
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Channel or author name added to the query")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0.4, "Minimum title similarity (0-1)")
	cmd.Flags().IntVar(&maxResults, "max-results", 5, "Maximum number of results")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func loadConfig(logLevel string) (*config.AppConfig, error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.LogError("Failed to load configuration: %v", err)
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		appConfig.LogLevel = logLevel
	}
	logger.Setup(appConfig.LogLevel)
	return appConfig, nil
}

// newHTTPClient creates a single, pooled HTTP client for outbound requests.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// app holds the collaborators shared by serve and extract.
type app struct {
	config   *config.AppConfig
	pipeline *extractor.Pipeline
	repo     *storage.Repo
	searcher extractor.Searcher
	cache    cache.Cache
	metrics  *metrics.Metrics
	browsers *browser.Pool
}

// setup wires the pipeline from configuration. The database is opened only
// when withStore is set.
func setup(ctx context.Context, logLevel string, withStore bool) (*app, error) {
	appConfig, err := loadConfig(logLevel)
	if err != nil {
		return nil, err
	}

	log.Println("Validating system dependencies...")
	if warnings := utils.ValidateSystemDependencies(); len(warnings) > 0 {
		for _, w := range warnings {
			log.Printf("Warning: %s", w)
		}
		log.Printf("Continuing startup...")
	} else {
		log.Printf("System dependencies validated successfully (Python: %s)", utils.GetPythonCommand())
	}

	a := &app{config: appConfig, metrics: metrics.New()}
	tax := taxonomy.Default()

	if withStore {
		a.repo, err = storage.OpenRepo(ctx, appConfig.DatabasePath, tax)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		log.Printf("Storage: Using SQLite database at %s", appConfig.DatabasePath)
	}

	a.cache, err = cache.New(ctx, appConfig)
	if err != nil {
		logger.LogError("Cache backend unavailable, using in-memory cache: %v", err)
		a.cache = cache.NewShardedMemoryCache(appConfig.ExtractionCacheTTL, 2*appConfig.ExtractionCacheTTL)
	}

	httpClient := newHTTPClient(30 * time.Second)
	a.searcher = cache.NewCachedSearcher(
		search.NewClient(httpClient, appConfig.SearchTimeout, appConfig.SearxNGURL),
		a.cache, appConfig.SearchCacheTTL)

	llmClient := llm.NewClient(appConfig.OpenAIAPIKey,
		llm.WithModel(appConfig.OpenAIModel),
		llm.WithBaseURL(appConfig.OpenAIBaseURL),
		llm.WithHTTPClient(newHTTPClient(appConfig.LLMTimeout+5*time.Second)),
	)

	deps := extractor.Deps{
		HTTPClient: httpClient,
		Search:     a.searcher,
		LLM:        llm.NewExtractor(llmClient, tax, appConfig.LLMTimeout),
		Metrics:    a.metrics,
	}
	if appConfig.RenderJSPages {
		a.browsers, err = browser.NewPool(appConfig.BrowserPoolSize)
		if err != nil {
			logger.LogError("Failed to create browser pool, JS rendering disabled: %v", err)
		} else {
			deps.Renderer = a.browsers
		}
	}

	a.pipeline = extractor.NewPipeline(ctx, appConfig, deps)
	return a, nil
}

func (a *app) Close() {
	if a.browsers != nil {
		a.browsers.Cleanup()
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.LogError("Error closing cache: %v", err)
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			logger.LogError("Error closing database: %v", err)
		}
	}
}

func runServe(ctx context.Context, logLevel string) error {
	a, err := setup(ctx, logLevel, true)
	if err != nil {
		return err
	}
	defer a.Close()
	appConfig := a.config

	pool := worker.NewWorkerPool(a.pipeline, appConfig.WorkerPoolSize, appConfig.JobQueueSize)
	pool.Start()
	defer pool.Stop()

	handler := api.NewRecipeHandler(appConfig, a.pipeline, a.repo, a.searcher, a.cache, pool, a.metrics)

	// A batch may queue several extractions behind the worker pool.
	requestTimeout := max(3*time.Minute, appConfig.ExtractionTimeout+30*time.Second)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appConfig.GetPort()),
		Handler:      api.WithMiddleware(handler.Routes(), requestTimeout, a.metrics),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %d", appConfig.GetPort())
		log.Printf("Available endpoints:")
		log.Printf("  POST   /api/extract         - Extract and store a recipe")
		log.Printf("  POST   /api/extract/batch   - Extract up to 10 recipes")
		log.Printf("  GET    /api/recipes         - List stored recipes")
		log.Printf("  GET    /api/recipes/search  - Search stored recipes")
		log.Printf("  GET    /api/search          - Search recipe sites by title")
		log.Printf("  GET    /api/categories      - Category taxonomy")
		log.Printf("  GET    /health, /metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			logger.LogError("Server failed to start: %v", err)
			return err
		}
		return nil
	case <-quit:
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError("Server forced to shutdown: %v", err)
		return err
	}

	log.Println("Server exited gracefully")
	return nil
}
