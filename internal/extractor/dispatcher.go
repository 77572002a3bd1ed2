package extractor

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"recipe-extraction-api/internal/config"
	"recipe-extraction-api/internal/urlnorm"
)

// DetectPlatform routes a URL by case-insensitive substring: YouTube hosts,
// then Instagram, else a direct recipe page.
func DetectPlatform(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "instagram.com"):
		return PlatformInstagram
	default:
		return PlatformDirectURL
	}
}

// prepare normalizes the request URLs and identifies the platform.
func (p *Pipeline) prepare(req Request) *flowState {
	req.URL = urlnorm.Normalize(req.URL)
	if strings.TrimSpace(req.ManualRecipeURL) != "" {
		req.ManualRecipeURL = urlnorm.Normalize(req.ManualRecipeURL)
	} else {
		req.ManualRecipeURL = ""
	}
	if strings.TrimSpace(req.ManualCaption) == "" {
		req.ManualCaption = ""
	}

	platform := DetectPlatform(req.URL)
	log.Printf("Pipeline: Identified %s as %s", req.URL, platform)
	return &flowState{req: req, platform: platform}
}

func (p *Pipeline) flowFor(platform Platform) flow {
	switch platform {
	case PlatformYouTube:
		return p.videoFlow()
	case PlatformInstagram:
		return p.captionFlow()
	default:
		return p.directFlow()
	}
}

// Deps are the collaborators NewPipeline cannot build from config alone.
// Any of them may be nil.
type Deps struct {
	HTTPClient *http.Client
	Renderer   PageRenderer
	Search     Searcher
	LLM        RecipeLLM
	Metrics    StepObserver
}

// NewPipeline wires the production fetchers from configuration. The YouTube
// Data API is used when a key is configured, yt-dlp otherwise.
func NewPipeline(ctx context.Context, appConfig *config.AppConfig, deps Deps) *Pipeline {
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var provider VideoProvider
	if appConfig.HasYouTubeConfig() {
		apiProvider, err := NewYouTubeAPIProvider(ctx, appConfig.YouTubeAPIKey)
		if err != nil {
			log.Printf("Warning: Failed to initialize YouTube Data API provider: %v. Falling back to yt-dlp.", err)
		} else {
			provider = apiProvider
		}
	}
	if provider == nil {
		provider = NewYtDlpProvider()
	}

	transcripts := NewTranscriptSources(appConfig.TranscriptOrder,
		appConfig.WebshareProxyUsername, appConfig.WebshareProxyPassword, client)

	return &Pipeline{
		Pages:               NewRecipePageFetcher(appConfig.PageFetchTimeout, deps.Renderer),
		Videos:              NewYouTubeFetcher(provider, transcripts, appConfig.MaxComments, appConfig.VideoFetchTimeout),
		Search:              deps.Search,
		LLM:                 deps.LLM,
		Expander:            NewHTTPLinkExpander(client, 10*time.Second),
		Metrics:             deps.Metrics,
		MaxTranscriptLength: appConfig.MaxTranscriptLength,
		Timeout:             appConfig.ExtractionTimeout,
	}
}
