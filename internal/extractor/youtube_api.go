package extractor

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeAPIProvider reads metadata and comments through the YouTube Data API v3.
type YouTubeAPIProvider struct {
	service *youtube.Service
}

// NewYouTubeAPIProvider creates a provider. Extra options are passed to the
// service constructor after the API key.
func NewYouTubeAPIProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeAPIProvider, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &YouTubeAPIProvider{service: svc}, nil
}

// Metadata implements VideoProvider.
func (p *YouTubeAPIProvider) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	resp, err := p.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube api video details: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, ErrVideoUnavailable
	}

	item := resp.Items[0]
	s := item.Snippet
	meta := &VideoMetadata{
		VideoID:      videoID,
		Title:        s.Title,
		Description:  s.Description,
		ChannelName:  s.ChannelTitle,
		ChannelID:    s.ChannelId,
		ThumbnailURL: bestThumbnail(s.Thumbnails),
		UploadDate:   strings.ReplaceAll(firstN(s.PublishedAt, 10), "-", ""),
	}
	if s.ChannelId != "" {
		meta.ChannelURL = "https://www.youtube.com/channel/" + s.ChannelId
	}
	if item.ContentDetails != nil {
		meta.DurationSecs = parseVideoDuration(item.ContentDetails.Duration)
	}
	log.Printf("YouTubeAPIProvider: Fetched Title: '%s', Channel: '%s' for %s", meta.Title, meta.ChannelName, videoID)
	return meta, nil
}

// TopComments implements VideoProvider using relevance order.
func (p *YouTubeAPIProvider) TopComments(ctx context.Context, videoID string, max int) ([]Comment, error) {
	resp, err := p.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		Order("relevance").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube api comments: %w", err)
	}

	comments := make([]Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		c := item.Snippet.TopLevelComment.Snippet
		text := c.TextOriginal
		if text == "" {
			text = stripMarkup(c.TextDisplay)
		}
		var authorID string
		if c.AuthorChannelId != nil {
			authorID = c.AuthorChannelId.Value
		}
		comments = append(comments, Comment{
			Text:       text,
			AuthorID:   authorID,
			AuthorName: c.AuthorDisplayName,
		})
		if len(comments) == max {
			break
		}
	}
	log.Printf("YouTubeAPIProvider: Fetched %d comments for %s", len(comments), videoID)
	return comments, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Standard, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var videoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseVideoDuration converts contentDetails.duration (P#DT#H#M#S) to seconds.
func parseVideoDuration(d string) int {
	m := videoDurationPattern.FindStringSubmatch(d)
	if m == nil {
		return 0
	}
	parts := [4]int{}
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	return parts[0]*86400 + parts[1]*3600 + parts[2]*60 + parts[3]
}

// stripMarkup turns the HTML comment body the API returns into plain text.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteString("\n")
			}
		}
	}
}
