package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "ytapi,tactiq", cfg.TranscriptOrder)
	assert.Equal(t, 15000, cfg.MaxTranscriptLength)
	assert.Equal(t, 90*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.False(t, cfg.HasOpenAIConfig())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EXTRACTION_TIMEOUT", "120")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("RENDER_JS_PAGES", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.GetPort())
	assert.Equal(t, 120*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.True(t, cfg.RenderJSPages)
	assert.True(t, cfg.HasOpenAIConfig())
}

func TestValidate(t *testing.T) {
	base := func() *AppConfig {
		return &AppConfig{
			Port:                "8080",
			CacheBackend:        "memory",
			MaxTranscriptLength: 100,
			WorkerPoolSize:      1,
			ExtractionTimeout:   time.Minute,
			PageFetchTimeout:    time.Second,
			SearchTimeout:       time.Second,
			LLMTimeout:          time.Second,
			VideoFetchTimeout:   time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *AppConfig) {}},
		{name: "bad port", mutate: func(c *AppConfig) { c.Port = "abc" }, wantErr: true},
		{name: "bad cache backend", mutate: func(c *AppConfig) { c.CacheBackend = "disk" }, wantErr: true},
		{name: "step timeout exceeds budget", mutate: func(c *AppConfig) { c.LLMTimeout = 2 * time.Minute }, wantErr: true},
		{name: "zero transcript length", mutate: func(c *AppConfig) { c.MaxTranscriptLength = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
