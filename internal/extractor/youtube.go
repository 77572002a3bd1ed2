package extractor

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/urlnorm"
)

// VideoMetadata is what the provider knows about a video.
type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelName  string `json:"channel_name"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelURL   string `json:"channel_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DurationSecs int    `json:"duration,omitempty"`
	UploadDate   string `json:"upload_date,omitempty"`
}

// Comment is a top-level video comment.
type Comment struct {
	Text       string `json:"text"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	IsAuthor   bool   `json:"is_author"`
	IsPinned   bool   `json:"is_pinned"`
}

// VideoContent is everything the video flow needs from one fetch.
type VideoContent struct {
	Metadata           VideoMetadata
	Transcript         string
	Comments           []Comment
	ExtractedURLs      []string
	PatternMatchedURLs []string
	HasLinkInBio       bool
}

// AuthorComments returns the text of comments written by the channel owner.
func (c *VideoContent) AuthorComments() []string {
	var out []string
	for _, cm := range c.Comments {
		if cm.IsAuthor {
			out = append(out, cm.Text)
		}
	}
	return out
}

// PinnedComment returns the first pinned comment's text, or "".
func (c *VideoContent) PinnedComment() string {
	for _, cm := range c.Comments {
		if cm.IsPinned {
			return cm.Text
		}
	}
	return ""
}

// VideoProvider supplies video metadata and comments.
type VideoProvider interface {
	Metadata(ctx context.Context, videoID string) (*VideoMetadata, error)
	TopComments(ctx context.Context, videoID string, max int) ([]Comment, error)
}

// VideoFetcher fetches everything about a video URL. A nil content with an
// error means the video flow cannot continue.
type VideoFetcher interface {
	FetchContent(ctx context.Context, videoURL string, maxTranscriptLength int) (*VideoContent, error)
}

// pinnedWindow is how many leading "top" comments from the owner count as pinned.
const pinnedWindow = 3

// YouTubeFetcher combines a VideoProvider with transcript sources.
type YouTubeFetcher struct {
	Provider    VideoProvider
	Transcripts []TranscriptSource
	MaxComments int
	Timeout     time.Duration
}

// NewYouTubeFetcher creates a YouTubeFetcher.
func NewYouTubeFetcher(provider VideoProvider, transcripts []TranscriptSource, maxComments int, timeout time.Duration) *YouTubeFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YouTubeFetcher{
		Provider:    provider,
		Transcripts: transcripts,
		MaxComments: maxComments,
		Timeout:     timeout,
	}
}

// FetchContent resolves the video ID and fetches metadata, comments and a
// transcript concurrently. Only a metadata failure fails the fetch.
func (f *YouTubeFetcher) FetchContent(ctx context.Context, videoURL string, maxTranscriptLength int) (*VideoContent, error) {
	log.Printf("YouTubeFetcher: Starting fetch for URL: %s", videoURL)

	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		logger.LogError("YouTubeFetcher: Error for %s: %v", videoURL, ErrNoVideoID)
		return nil, ErrNoVideoID
	}
	log.Printf("YouTubeFetcher: Extracted Video ID: %s for URL: %s", videoID, videoURL)

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	var (
		wg         sync.WaitGroup
		meta       *VideoMetadata
		metaErr    error
		comments   []Comment
		transcript string
		watchURL   = "https://www.youtube.com/watch?v=" + videoID
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		meta, metaErr = f.Provider.Metadata(ctx, videoID)
	}()

	if f.MaxComments > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			comments, err = f.Provider.TopComments(ctx, videoID, f.MaxComments)
			if err != nil {
				logger.LogError("YouTubeFetcher: Error fetching comments for %s: %v", videoID, err)
				comments = nil
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		txt, err := fetchTranscript(ctx, f.Transcripts, videoID, watchURL)
		if err != nil {
			log.Printf("YouTubeFetcher: No transcript for %s: %v", videoID, err)
			return
		}
		transcript = truncateTranscript(txt, maxTranscriptLength)
	}()

	wg.Wait()

	if metaErr != nil {
		logger.LogError("YouTubeFetcher: Error fetching metadata for %s: %v", videoID, metaErr)
		return nil, fmt.Errorf("video metadata: %w", metaErr)
	}
	if meta == nil {
		return nil, ErrVideoUnavailable
	}
	meta.VideoID = videoID

	markOwnerComments(comments, meta.ChannelID)

	content := &VideoContent{
		Metadata:   *meta,
		Transcript: transcript,
		Comments:   comments,
	}
	scanLinks(content)

	log.Printf("YouTubeFetcher: Fetched %q by %q: %d comments, transcript length %d, %d URLs, %d pattern URLs",
		meta.Title, meta.ChannelName, len(comments), len(transcript), len(content.ExtractedURLs), len(content.PatternMatchedURLs))
	return content, nil
}

func markOwnerComments(comments []Comment, channelID string) {
	if channelID == "" {
		return
	}
	for i := range comments {
		if comments[i].AuthorID == channelID {
			comments[i].IsAuthor = true
			comments[i].IsPinned = i < pinnedWindow
		}
	}
}

// scanLinks fills the URL and bio signals from the description and comments.
func scanLinks(c *VideoContent) {
	var b strings.Builder
	b.WriteString(c.Metadata.Description)
	for _, cm := range c.Comments {
		b.WriteString("\n")
		b.WriteString(cm.Text)
	}
	text := b.String()

	c.ExtractedURLs = urlnorm.ExtractURLs(text)
	c.PatternMatchedURLs = ExtractRecipeLinksFromPatterns(text)
	c.HasLinkInBio = HasLinkInBio(text)
}

func truncateTranscript(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

var validVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// videoIDShape extracts a candidate ID from a parsed URL, or "".
type videoIDShape func(u *url.URL, host string) string

func pathPrefixShape(prefix string) videoIDShape {
	return func(u *url.URL, host string) string {
		if !isYouTubeHost(host) || !strings.HasPrefix(u.Path, prefix) {
			return ""
		}
		return strings.SplitN(strings.TrimPrefix(u.Path, prefix), "/", 2)[0]
	}
}

// Shapes are tried in order; the first valid ID wins.
var videoIDShapes = []videoIDShape{
	// watch and mobile watch
	func(u *url.URL, host string) string {
		if isYouTubeHost(host) && u.Path == "/watch" {
			return u.Query().Get("v")
		}
		return ""
	},
	// short link
	func(u *url.URL, host string) string {
		if host == "youtu.be" {
			return strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
		}
		return ""
	},
	pathPrefixShape("/embed/"),
	pathPrefixShape("/shorts/"),
	pathPrefixShape("/v/"),
	pathPrefixShape("/live/"),
	pathPrefixShape("/e/"),
	func(u *url.URL, host string) string {
		if !isYouTubeHost(host) || u.Path != "/attribution_link" {
			return ""
		}
		inner, err := url.Parse(u.Query().Get("u"))
		if err != nil {
			return ""
		}
		return inner.Query().Get("v")
	},
}

func isYouTubeHost(host string) bool {
	switch host {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com",
		"youtube-nocookie.com", "www.youtube-nocookie.com":
		return true
	}
	return false
}

// ExtractVideoID returns the 11-character video ID for any supported YouTube
// URL shape, or "" when none matches.
func ExtractVideoID(videoURL string) string {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return ""
	}
	if !strings.Contains(videoURL, "://") {
		videoURL = "https://" + videoURL
	}
	u, err := url.Parse(videoURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	for _, shape := range videoIDShapes {
		if id := shape(u, host); validVideoID.MatchString(id) {
			return id
		}
	}
	return ""
}
