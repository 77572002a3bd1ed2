package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
)

// YtDlpProvider reads metadata and comments by shelling out to yt-dlp. It is
// used when no YouTube API key is configured.
type YtDlpProvider struct {
	Binary string
}

// NewYtDlpProvider creates a provider that runs the yt-dlp on PATH.
func NewYtDlpProvider() *YtDlpProvider {
	return &YtDlpProvider{Binary: "yt-dlp"}
}

type ytdlpInfo struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Channel     string         `json:"channel"`
	Uploader    string         `json:"uploader"`
	ChannelID   string         `json:"channel_id"`
	ChannelURL  string         `json:"channel_url"`
	UploaderURL string         `json:"uploader_url"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    float64        `json:"duration"`
	UploadDate  string         `json:"upload_date"`
	Comments    []ytdlpComment `json:"comments"`
}

type ytdlpComment struct {
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
	Author   string `json:"author"`
}

func (p *YtDlpProvider) run(ctx context.Context, videoID string, extra ...string) (*ytdlpInfo, error) {
	args := append([]string{"--dump-json", "--skip-download", "--no-playlist"}, extra...)
	args = append(args, "https://www.youtube.com/watch?v="+videoID)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w; stderr: %s", err, truncateForLog(stderr.String(), 300))
	}
	return parseYtdlpInfo(stdout.Bytes())
}

func parseYtdlpInfo(data []byte) (*ytdlpInfo, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(bytes.TrimSpace(data), &info); err != nil {
		return nil, fmt.Errorf("yt-dlp output: %w", err)
	}
	return &info, nil
}

func (info *ytdlpInfo) metadata(videoID string) *VideoMetadata {
	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}
	channelURL := info.ChannelURL
	if channelURL == "" {
		channelURL = info.UploaderURL
	}
	return &VideoMetadata{
		VideoID:      videoID,
		Title:        info.Title,
		Description:  info.Description,
		ChannelName:  channel,
		ChannelID:    info.ChannelID,
		ChannelURL:   channelURL,
		ThumbnailURL: info.Thumbnail,
		DurationSecs: int(info.Duration),
		UploadDate:   info.UploadDate,
	}
}

// Metadata implements VideoProvider.
func (p *YtDlpProvider) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	info, err := p.run(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if info.Title == "" {
		return nil, ErrVideoUnavailable
	}
	return info.metadata(videoID), nil
}

// TopComments implements VideoProvider with yt-dlp's "top" comment sort.
func (p *YtDlpProvider) TopComments(ctx context.Context, videoID string, max int) ([]Comment, error) {
	info, err := p.run(ctx, videoID,
		"--write-comments",
		"--extractor-args", "youtube:comment_sort=top;max_comments="+strconv.Itoa(max))
	if err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(info.Comments))
	for _, c := range info.Comments {
		comments = append(comments, Comment{Text: c.Text, AuthorID: c.AuthorID, AuthorName: c.Author})
		if len(comments) == max {
			break
		}
	}
	log.Printf("YtDlpProvider: Fetched %d comments for %s", len(comments), videoID)
	return comments, nil
}

func truncateForLog(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
