package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=120&list=PLxyz", "dQw4w9WgXcQ"},
		{"mobile watch", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&si=abc123xyz", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link tracking", "https://youtu.be/dQw4w9WgXcQ?si=tracking123", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy v", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"e", "https://www.youtube.com/e/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"attribution", "https://www.youtube.com/attribution_link?u=%2Fwatch%3Fv%3DdQw4w9WgXcQ%26feature%3Dshare", "dQw4w9WgXcQ"},
		{"too short", "https://www.youtube.com/watch?v=123", ""},
		{"other site", "https://www.vimeo.com/123456", ""},
		{"not a url", "not a url", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestTruncateTranscript(t *testing.T) {
	assert.Equal(t, "short", truncateTranscript("short", 10))
	assert.Equal(t, "abc...", truncateTranscript("abcdef", 3))
	assert.Equal(t, "ñañ...", truncateTranscript("ñañaña", 3))
	assert.Equal(t, "unbounded", truncateTranscript("unbounded", 0))
}

func TestCommentHelpers(t *testing.T) {
	comments := []Comment{
		{Text: "Recipe link: https://...", AuthorID: "UC1"},
		{Text: "Great video!", AuthorID: "user1"},
		{Text: "Thanks!", AuthorID: "user2"},
		{Text: "More info here", AuthorID: "UC1"},
	}
	markOwnerComments(comments, "UC1")
	c := &VideoContent{Comments: comments}

	assert.Equal(t, []string{"Recipe link: https://...", "More info here"}, c.AuthorComments())
	assert.Equal(t, "Recipe link: https://...", c.PinnedComment())
	assert.True(t, comments[3].IsAuthor)
	assert.False(t, comments[3].IsPinned, "owner comment outside the leading window is not pinned")

	none := &VideoContent{Comments: []Comment{{Text: "Great!", AuthorID: "user1"}}}
	assert.Empty(t, none.AuthorComments())
	assert.Empty(t, none.PinnedComment())
}

type fakeProvider struct {
	meta        *VideoMetadata
	metaErr     error
	comments    []Comment
	commentsErr error
}

func (p *fakeProvider) Metadata(context.Context, string) (*VideoMetadata, error) {
	if p.meta == nil {
		return nil, p.metaErr
	}
	m := *p.meta
	return &m, p.metaErr
}

func (p *fakeProvider) TopComments(_ context.Context, _ string, max int) ([]Comment, error) {
	if len(p.comments) > max {
		return p.comments[:max], p.commentsErr
	}
	return p.comments, p.commentsErr
}

type fakeTranscript struct {
	name  string
	text  string
	err   error
	calls atomic.Int32
}

func (s *fakeTranscript) Name() string { return s.name }

func (s *fakeTranscript) Transcript(context.Context, string, string) (string, error) {
	s.calls.Add(1)
	return s.text, s.err
}

func TestYouTubeFetcherFetchContent(t *testing.T) {
	provider := &fakeProvider{
		meta: &VideoMetadata{
			Title:       "Best Tomato Pasta",
			Description: "Full recipe: https://www.seriouseats.com/pasta-recipe\nMore at https://myblog.com/about #pasta #dinner",
			ChannelName: "Chef",
			ChannelID:   "UC1",
		},
		comments: []Comment{
			{Text: "Written recipe: https://chef.example.com/recipes/pasta", AuthorID: "UC1"},
			{Text: "Looks great", AuthorID: "u2"},
			{Text: "recipe in my bio", AuthorID: "u3"},
		},
	}
	first := &fakeTranscript{name: "first", err: errors.New("disabled")}
	second := &fakeTranscript{name: "second", text: "  today we cook pasta  "}

	f := NewYouTubeFetcher(provider, []TranscriptSource{first, second}, 20, time.Second)
	content, err := f.FetchContent(context.Background(), "https://youtu.be/dQw4w9WgXcQ", 100)
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", content.Metadata.VideoID)
	assert.Equal(t, "today we cook pasta", content.Transcript)
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, []string{
		"https://www.seriouseats.com/pasta-recipe",
		"https://myblog.com/about",
		"https://chef.example.com/recipes/pasta",
	}, content.ExtractedURLs)
	assert.ElementsMatch(t, []string{
		"https://www.seriouseats.com/pasta-recipe",
		"https://chef.example.com/recipes/pasta",
	}, content.PatternMatchedURLs)
	assert.True(t, content.HasLinkInBio)
	assert.True(t, content.Comments[0].IsPinned)
	assert.Equal(t, "Written recipe: https://chef.example.com/recipes/pasta", content.PinnedComment())
}

func TestYouTubeFetcherFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no video id", func(t *testing.T) {
		f := NewYouTubeFetcher(&fakeProvider{}, nil, 5, time.Second)
		content, err := f.FetchContent(ctx, "https://www.youtube.com/channel/UC1", 100)
		assert.Nil(t, content)
		assert.ErrorIs(t, err, ErrNoVideoID)
	})

	t.Run("metadata error", func(t *testing.T) {
		f := NewYouTubeFetcher(&fakeProvider{metaErr: ErrVideoUnavailable}, nil, 5, time.Second)
		content, err := f.FetchContent(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", 100)
		assert.Nil(t, content)
		assert.ErrorIs(t, err, ErrVideoUnavailable)
	})

	t.Run("comments and transcript missing is fine", func(t *testing.T) {
		p := &fakeProvider{
			meta:        &VideoMetadata{Title: "Soup", Description: "no links"},
			commentsErr: errors.New("comments disabled"),
		}
		f := NewYouTubeFetcher(p, []TranscriptSource{&fakeTranscript{name: "x"}}, 5, time.Second)
		content, err := f.FetchContent(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", 100)
		require.NoError(t, err)
		assert.Empty(t, content.Transcript)
		assert.Empty(t, content.Comments)
		assert.Empty(t, content.ExtractedURLs)
		assert.False(t, content.HasLinkInBio)
	})
}

func newFakeYouTubeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/videos"):
			if r.URL.Query().Get("id") != "dQw4w9WgXcQ" {
				_, _ = w.Write([]byte(`{"items": []}`))
				return
			}
			_, _ = w.Write([]byte(`{"items": [{
				"id": "dQw4w9WgXcQ",
				"snippet": {
					"title": "Tomato Pasta",
					"description": "Recipe: https://www.seriouseats.com/pasta",
					"channelTitle": "Chef",
					"channelId": "UC1",
					"publishedAt": "2024-03-05T10:00:00Z",
					"thumbnails": {"default": {"url": "https://i.ytimg.com/d.jpg"}, "high": {"url": "https://i.ytimg.com/h.jpg"}}
				},
				"contentDetails": {"duration": "PT4M13S"}
			}]}`))
		case strings.HasSuffix(r.URL.Path, "/commentThreads"):
			assert.Equal(t, "relevance", r.URL.Query().Get("order"))
			_, _ = w.Write([]byte(`{"items": [
				{"snippet": {"topLevelComment": {"snippet": {
					"textDisplay": "Recipe &amp; notes: <a href=\"https://chef.example.com/r\">https://chef.example.com/r</a><br>Enjoy",
					"authorDisplayName": "Chef",
					"authorChannelId": {"value": "UC1"}
				}}}},
				{"snippet": {"topLevelComment": {"snippet": {
					"textDisplay": "yum",
					"textOriginal": "yum!",
					"authorDisplayName": "Fan",
					"authorChannelId": {"value": "UC2"}
				}}}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYouTubeAPIProvider(t *testing.T) {
	srv := newFakeYouTubeAPI(t)
	ctx := context.Background()
	p, err := NewYouTubeAPIProvider(ctx, "test-key", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	meta, err := p.Metadata(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Pasta", meta.Title)
	assert.Equal(t, "Chef", meta.ChannelName)
	assert.Equal(t, "UC1", meta.ChannelID)
	assert.Equal(t, "https://www.youtube.com/channel/UC1", meta.ChannelURL)
	assert.Equal(t, "https://i.ytimg.com/h.jpg", meta.ThumbnailURL)
	assert.Equal(t, 253, meta.DurationSecs)
	assert.Equal(t, "20240305", meta.UploadDate)

	_, err = p.Metadata(ctx, "zzzzzzzzzzz")
	assert.ErrorIs(t, err, ErrVideoUnavailable)

	comments, err := p.TopComments(ctx, "dQw4w9WgXcQ", 10)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Recipe & notes: https://chef.example.com/r\nEnjoy", comments[0].Text)
	assert.Equal(t, "UC1", comments[0].AuthorID)
	assert.Equal(t, "yum!", comments[1].Text)
}

func TestParseVideoDuration(t *testing.T) {
	assert.Equal(t, 253, parseVideoDuration("PT4M13S"))
	assert.Equal(t, 3600, parseVideoDuration("PT1H"))
	assert.Equal(t, 90061, parseVideoDuration("P1DT1H1M1S"))
	assert.Equal(t, 0, parseVideoDuration("bogus"))
}

func TestTactiqTranscriptSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["videoUrl"] {
		case "https://www.youtube.com/watch?v=ok":
			_, _ = w.Write([]byte(`{"captions": [{"text": "first"}, {"text": ""}, {"text": "second"}]}`))
		case "https://www.youtube.com/watch?v=empty":
			_, _ = w.Write([]byte(`{"captions": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewTactiqTranscriptSource(srv.Client())
	s.Endpoint = srv.URL
	ctx := context.Background()

	txt, err := s.Transcript(ctx, "ok", "https://www.youtube.com/watch?v=ok")
	require.NoError(t, err)
	assert.Equal(t, "first second", txt)

	_, err = s.Transcript(ctx, "empty", "https://www.youtube.com/watch?v=empty")
	assert.Error(t, err)

	_, err = s.Transcript(ctx, "gone", "https://www.youtube.com/watch?v=gone")
	assert.Error(t, err)
}

func TestParseYTAPIOutput(t *testing.T) {
	txt, err := parseYTAPIOutput([]byte("Collecting youtube_transcript_api\n[{\"text\": \"hello\"}, {\"text\": \"world\"}]\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", txt)

	_, err = parseYTAPIOutput([]byte(`{"error": "Transcripts are disabled"}`))
	assert.ErrorContains(t, err, "Transcripts are disabled")

	_, err = parseYTAPIOutput([]byte(`[]`))
	assert.Error(t, err)
}

func TestNewTranscriptSources(t *testing.T) {
	sources := NewTranscriptSources("tactiq, bogus ,ytapi", "", "", nil)
	require.Len(t, sources, 2)
	assert.Equal(t, "tactiq", sources[0].Name())
	assert.Equal(t, "ytapi", sources[1].Name())

	assert.Len(t, NewTranscriptSources("", "", "", nil), 2)
}

func TestParseYtdlpInfo(t *testing.T) {
	info, err := parseYtdlpInfo([]byte(`{
		"title": "Pasta", "description": "desc", "uploader": "Chef Up", "channel_id": "UC1",
		"uploader_url": "https://www.youtube.com/@chef", "thumbnail": "https://i.ytimg.com/x.jpg",
		"duration": 61.5, "upload_date": "20240102",
		"comments": [{"text": "hi", "author_id": "UC1", "author": "Chef Up"}]
	}`))
	require.NoError(t, err)

	meta := info.metadata("dQw4w9WgXcQ")
	assert.Equal(t, "Chef Up", meta.ChannelName)
	assert.Equal(t, "https://www.youtube.com/@chef", meta.ChannelURL)
	assert.Equal(t, 61, meta.DurationSecs)
	assert.Equal(t, "20240102", meta.UploadDate)
	require.Len(t, info.Comments, 1)

	_, err = parseYtdlpInfo([]byte("ERROR: video unavailable"))
	assert.Error(t, err)
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain", stripMarkup("plain"))
	assert.Equal(t, "a & b\nc", stripMarkup("a &amp; b<br>c"))
}
