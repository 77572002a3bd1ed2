package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"recipe-extraction-api/internal/utils"
)

// TranscriptSource fetches a plain-text transcript for a video.
type TranscriptSource interface {
	Name() string
	Transcript(ctx context.Context, videoID, videoURL string) (string, error)
}

// NewTranscriptSources builds sources from a comma-separated order such as
// "ytapi,tactiq". Unknown names are skipped.
func NewTranscriptSources(order, proxyUser, proxyPass string, client *http.Client) []TranscriptSource {
	if strings.TrimSpace(order) == "" {
		order = "ytapi,tactiq"
	}
	var sources []TranscriptSource
	for _, name := range strings.Split(order, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "ytapi", "youtube_api", "youtubeapi":
			sources = append(sources, &YTAPITranscriptSource{ProxyUsername: proxyUser, ProxyPassword: proxyPass})
		case "tactiq":
			sources = append(sources, NewTactiqTranscriptSource(client))
		case "":
		default:
			log.Printf("TranscriptSources: Ignoring unknown transcript source %q", name)
		}
	}
	return sources
}

// fetchTranscript tries each source in order and returns the first non-empty text.
func fetchTranscript(ctx context.Context, sources []TranscriptSource, videoID, videoURL string) (string, error) {
	if len(sources) == 0 {
		return "", ErrNoTranscript
	}
	for _, s := range sources {
		log.Printf("YouTubeFetcher: Attempting transcript extraction using %s for %s", s.Name(), videoID)
		txt, err := s.Transcript(ctx, videoID, videoURL)
		if err == nil && strings.TrimSpace(txt) != "" {
			log.Printf("YouTubeFetcher: Extracted transcript using %s for %s (length: %d)", s.Name(), videoID, len(txt))
			return strings.TrimSpace(txt), nil
		}
		if err == nil {
			err = fmt.Errorf("transcript is empty")
		}
		log.Printf("YouTubeFetcher: %s transcript failed for %s: %v", s.Name(), videoID, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", ErrNoTranscript
}

func joinSegments(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// ytapiScript prefers English captions and falls back to any language.
const ytapiScript = `import os, sys, json, subprocess, importlib.util

if importlib.util.find_spec("youtube_transcript_api") is None:
    try:
        subprocess.check_call([sys.executable, '-m', 'pip', 'install', '--quiet', 'youtube_transcript_api'])
    except subprocess.CalledProcessError:
        subprocess.check_call([sys.executable, '-m', 'pip', 'install', '--quiet', '--break-system-packages', 'youtube_transcript_api'])

from youtube_transcript_api import YouTubeTranscriptApi

username = os.getenv('WEBSHARE_PROXY_USERNAME')
password = os.getenv('WEBSHARE_PROXY_PASSWORD')

try:
    if username and password:
        from youtube_transcript_api.proxies import WebshareProxyConfig
        api = YouTubeTranscriptApi(proxy_config=WebshareProxyConfig(proxy_username=username, proxy_password=password))
    else:
        api = YouTubeTranscriptApi()
    video_id = sys.argv[1]
    try:
        fetched = api.fetch(video_id, languages=['en', 'en-US', 'en-GB'])
    except Exception:
        transcripts = list(api.list(video_id))
        if not transcripts:
            raise
        fetched = transcripts[0].fetch()
    print(json.dumps([{'text': s.text} for s in fetched.snippets]))
except Exception as e:
    print(json.dumps({'error': str(e)}))
`

// YTAPITranscriptSource runs youtube-transcript-api inside the project venv.
type YTAPITranscriptSource struct {
	ProxyUsername string
	ProxyPassword string
}

func (s *YTAPITranscriptSource) Name() string { return "ytapi" }

// Transcript implements TranscriptSource.
func (s *YTAPITranscriptSource) Transcript(ctx context.Context, videoID, _ string) (string, error) {
	var env []string
	if s.ProxyUsername != "" && s.ProxyPassword != "" {
		env = append(env,
			"WEBSHARE_PROXY_USERNAME="+s.ProxyUsername,
			"WEBSHARE_PROXY_PASSWORD="+s.ProxyPassword)
	}

	output, err := utils.RunVenvScript(ctx, ytapiScript, []string{videoID}, env)
	if err != nil {
		return "", fmt.Errorf("youtube_transcript_api command failed: %w; output: %s", err, string(output))
	}
	return parseYTAPIOutput(output)
}

func parseYTAPIOutput(output []byte) (string, error) {
	output = bytes.TrimSpace(output)
	// pip may print to stdout before the JSON line.
	if i := bytes.LastIndexByte(output, '\n'); i >= 0 {
		output = output[i+1:]
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if len(output) > 0 && output[0] == '{' {
		if err := json.Unmarshal(output, &errorResp); err == nil && errorResp.Error != "" {
			return "", fmt.Errorf("youtube_transcript_api error: %s", errorResp.Error)
		}
	}

	var segments []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(output, &segments); err != nil {
		return "", fmt.Errorf("failed to parse transcript json: %w", err)
	}
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	transcript := joinSegments(texts)
	if transcript == "" {
		return "", fmt.Errorf("empty transcript data")
	}
	return transcript, nil
}

// DefaultTactiqEndpoint is Tactiq's public transcript endpoint.
const DefaultTactiqEndpoint = "https://tactiq-apps-prod.tactiq.io/transcript"

// TactiqTranscriptSource calls Tactiq's public transcript endpoint.
type TactiqTranscriptSource struct {
	Endpoint string
	Client   *http.Client
}

// NewTactiqTranscriptSource creates a source; a nil client gets a 15s default.
func NewTactiqTranscriptSource(client *http.Client) *TactiqTranscriptSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TactiqTranscriptSource{Endpoint: DefaultTactiqEndpoint, Client: client}
}

func (s *TactiqTranscriptSource) Name() string { return "tactiq" }

// Transcript implements TranscriptSource.
func (s *TactiqTranscriptSource) Transcript(ctx context.Context, _ string, videoURL string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"videoUrl": videoURL,
		"langCode": "en",
	})
	if err != nil {
		return "", fmt.Errorf("tactiq marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("tactiq request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tactiq http: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("tactiq status: %d", resp.StatusCode)
	}

	var apiResp struct {
		Captions []struct {
			Text string `json:"text"`
		} `json:"captions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("tactiq decode: %w", err)
	}

	texts := make([]string, 0, len(apiResp.Captions))
	for _, c := range apiResp.Captions {
		texts = append(texts, c.Text)
	}
	transcript := joinSegments(texts)
	if transcript == "" {
		return "", fmt.Errorf("tactiq empty transcript")
	}
	return transcript, nil
}
