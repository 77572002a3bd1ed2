package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Port     string
	LogLevel string

	DatabasePath string

	// OpenAI-compatible chat completion endpoint used for transcript/caption parsing
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	YouTubeAPIKey string
	// Comma-separated order for transcript extraction methods: ytapi, tactiq
	TranscriptOrder string
	// Webshare proxy credentials for YouTube transcript API
	WebshareProxyUsername string
	WebshareProxyPassword string
	MaxTranscriptLength   int
	MaxComments           int

	SearxNGURL string

	ExtractionTimeout time.Duration
	PageFetchTimeout  time.Duration
	SearchTimeout     time.Duration
	LLMTimeout        time.Duration
	VideoFetchTimeout time.Duration

	CacheBackend       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	ExtractionCacheTTL time.Duration
	SearchCacheTTL     time.Duration

	RenderJSPages   bool
	BrowserPoolSize int

	WorkerPoolSize int
	JobQueueSize   int
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*AppConfig, error) {
	// Attempt to load .env file. If it doesn't exist, that's fine,
	// environment variables can still be used.
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Info: Could not load .env file: %v (this is ok if using environment variables)\n", err)
	}

	config := &AppConfig{
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabasePath:          getEnv("DATABASE_PATH", "./data/recipes.db"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		YouTubeAPIKey:         os.Getenv("YOUTUBE_API_KEY"),
		TranscriptOrder:       getEnv("YOUTUBE_TRANSCRIPT_ORDER", "ytapi,tactiq"),
		WebshareProxyUsername: os.Getenv("WEBSHARE_PROXY_USERNAME"),
		WebshareProxyPassword: os.Getenv("WEBSHARE_PROXY_PASSWORD"),
		SearxNGURL:            os.Getenv("SEARXNG_URL"),
		CacheBackend:          strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"MAX_TRANSCRIPT_LENGTH", 15000, &config.MaxTranscriptLength},
		{"MAX_COMMENTS", 20, &config.MaxComments},
		{"REDIS_DB", 0, &config.RedisDB},
		{"BROWSER_POOL_SIZE", 2, &config.BrowserPoolSize},
		{"WORKER_POOL_SIZE", 4, &config.WorkerPoolSize},
		{"JOB_QUEUE_SIZE", 64, &config.JobQueueSize},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, v.fallback); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"EXTRACTION_TIMEOUT", 90 * time.Second, &config.ExtractionTimeout},
		{"PAGE_FETCH_TIMEOUT", 20 * time.Second, &config.PageFetchTimeout},
		{"SEARCH_TIMEOUT", 10 * time.Second, &config.SearchTimeout},
		{"LLM_TIMEOUT", 60 * time.Second, &config.LLMTimeout},
		{"VIDEO_FETCH_TIMEOUT", 30 * time.Second, &config.VideoFetchTimeout},
		{"EXTRACTION_CACHE_TTL", 30 * time.Minute, &config.ExtractionCacheTTL},
		{"SEARCH_CACHE_TTL", 10 * time.Minute, &config.SearchCacheTTL},
	}
	for _, v := range durations {
		if *v.dst, err = getEnvDuration(v.key, v.fallback); err != nil {
			return nil, err
		}
	}

	config.RenderJSPages, err = strconv.ParseBool(getEnv("RENDER_JS_PAGES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid RENDER_JS_PAGES: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid
func (c *AppConfig) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port number: %s", c.Port)
	}

	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache backend: %s (must be 'memory' or 'redis')", c.CacheBackend)
	}

	if c.MaxTranscriptLength <= 0 {
		return fmt.Errorf("MAX_TRANSCRIPT_LENGTH must be positive, got %d", c.MaxTranscriptLength)
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", c.WorkerPoolSize)
	}

	// Every per-call timeout has to fit inside the overall extraction budget
	for name, d := range map[string]time.Duration{
		"PAGE_FETCH_TIMEOUT":  c.PageFetchTimeout,
		"SEARCH_TIMEOUT":      c.SearchTimeout,
		"LLM_TIMEOUT":         c.LLMTimeout,
		"VIDEO_FETCH_TIMEOUT": c.VideoFetchTimeout,
	} {
		if d <= 0 || d >= c.ExtractionTimeout {
			return fmt.Errorf("%s (%s) must be positive and smaller than EXTRACTION_TIMEOUT (%s)", name, d, c.ExtractionTimeout)
		}
	}

	// Warn about missing optional configurations
	if c.OpenAIAPIKey == "" {
		fmt.Println("Warning: OPENAI_API_KEY not set - transcript and caption parsing will be unavailable")
	}

	if c.YouTubeAPIKey == "" {
		fmt.Println("Warning: YOUTUBE_API_KEY not set - falling back to yt-dlp for YouTube metadata")
	}

	if (c.WebshareProxyUsername != "" && c.WebshareProxyPassword == "") || (c.WebshareProxyUsername == "" && c.WebshareProxyPassword != "") {
		fmt.Println("Warning: Incomplete Webshare proxy credentials - proxy will not be used")
	}

	return nil
}

// GetPort returns the port as an integer
func (c *AppConfig) GetPort() int {
	port, _ := strconv.Atoi(c.Port) // Already validated in Validate()
	return port
}

// HasYouTubeConfig returns true if YouTube API configuration is available
func (c *AppConfig) HasYouTubeConfig() bool {
	return c.YouTubeAPIKey != ""
}

// HasOpenAIConfig returns true if an LLM credential is available
func (c *AppConfig) HasOpenAIConfig() bool {
	return c.OpenAIAPIKey != ""
}

// HasWebshareConfig returns true if both proxy credentials are set
func (c *AppConfig) HasWebshareConfig() bool {
	return c.WebshareProxyUsername != "" && c.WebshareProxyPassword != ""
}

// HasSearxNGConfig returns true if a SearxNG instance is configured
func (c *AppConfig) HasSearxNGConfig() bool {
	return c.SearxNGURL != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
