package urlnorm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips youtube share param",
			input: "https://www.youtube.com/watch?v=abc123DEF45&si=xyz&t=30",
			want:  "https://www.youtube.com/watch?v=abc123DEF45&t=30",
		},
		{
			name:  "short link becomes watch url",
			input: "https://youtu.be/abc123DEF45?si=track",
			want:  "https://www.youtube.com/watch?v=abc123DEF45",
		},
		{
			name:  "short link keeps timestamp",
			input: "https://youtu.be/abc123DEF45?t=42",
			want:  "https://www.youtube.com/watch?v=abc123DEF45&t=42",
		},
		{
			name:  "mobile youtube host",
			input: "https://m.youtube.com/watch?v=abc123DEF45&feature=share",
			want:  "https://www.youtube.com/watch?v=abc123DEF45",
		},
		{
			name:  "instagram bare host",
			input: "https://instagram.com/reel/XYZ/?igsh=abc",
			want:  "https://www.instagram.com/reel/XYZ/",
		},
		{
			name:  "share text with trailing period",
			input: "Check out this recipe! https://www.allrecipes.com/recipe/123/pasta/?utm_source=share&utm_medium=ios.",
			want:  "https://www.allrecipes.com/recipe/123/pasta/",
		},
		{
			name:  "bare domain gets scheme",
			input: "seriouseats.com/best-lasagna",
			want:  "https://seriouseats.com/best-lasagna",
		},
		{
			name:  "mixed case tracking key and fragment",
			input: "https://example.com/page?b=2&UTM_Campaign=x&a=1#section",
			want:  "https://example.com/page?b=2&a=1",
		},
		{
			name:  "only tracking params",
			input: "https://example.com/recipes/soup?fbclid=1&gclid=2",
			want:  "https://example.com/recipes/soup",
		},
		{
			name:  "surrounding whitespace",
			input: "   https://food52.com/recipes/1-x   ",
			want:  "https://food52.com/recipes/1-x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	for _, input := range []string{"", "http://[::1", "%zz", "just words"} {
		assert.NotPanics(t, func() {
			got := Normalize(input)
			if input == "http://[::1" || input == "" {
				assert.Equal(t, input, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=abc123DEF45&si=xyz",
		"https://youtu.be/abc123DEF45",
		"https://m.youtube.com/shorts/abc123DEF45?feature=share",
		"https://instagram.com/p/Cxyz/?igshid=1",
		"Saw this on insta https://www.bonappetit.com/recipe/pasta?utm_campaign=a&x=1!",
		"budgetbytes.com/one-pot-chili/",
		"https://example.com/a%20b/?q=hello+world&ref=tw",
		"https://cooking.nytimes.com/recipes/1017256-french-onion-soup#comments",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeRemovesOnlyTrackingParams(t *testing.T) {
	in := "https://example.com/r?utm_source=a&keep=1&igsh=b&also=two%20words&ref_src=c&page=3"
	out, err := url.Parse(Normalize(in))
	require.NoError(t, err)

	q := out.Query()
	for key := range q {
		assert.False(t, IsTrackingParam(key), "tracking param %q survived", key)
	}
	assert.Equal(t, "1", q.Get("keep"))
	assert.Equal(t, "two words", q.Get("also"))
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "keep=1&also=two%20words&page=3", out.RawQuery)
}

func TestExtractURLs(t *testing.T) {
	text := `Full recipe: https://www.seriouseats.com/pasta-recipe. Also see (https://example.com/a) and
https://www.seriouseats.com/pasta-recipe again! "https://tasty.co/recipe/x"`

	assert.Equal(t, []string{
		"https://www.seriouseats.com/pasta-recipe",
		"https://example.com/a",
		"https://tasty.co/recipe/x",
	}, ExtractURLs(text))
	assert.Empty(t, ExtractURLs("no links here"))
}

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t,
		[]string{"#pasta", "#dinner", "#crème"},
		ExtractHashtags("Easy #pasta for #dinner tonight #pasta #crème"))
	assert.Empty(t, ExtractHashtags(""))
}
