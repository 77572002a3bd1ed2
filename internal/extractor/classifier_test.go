package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelyRecipeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cooking.nytimes.com/recipes/1234", true},
		{"https://www.seriouseats.com/pasta-recipe", true},
		{"https://www.bonappetit.com/recipe/chicken", true},
		{"https://www.budgetbytes.com/easy-pasta/", true},
		{"https://www.bbc.co.uk/food/pasta", true},
		{"https://unknown-blog.com/recipe/my-pasta", true},
		{"https://chef-blog.com/recipes/soup", true},
		{"https://cuisine.example.fr/recettes/tarte", true},
		{"https://kochen.example.de/rezept/knodel", true},
		{"https://www.google.com", false},
		{"https://www.youtube.com/watch?v=123", false},
		{"https://www.instagram.com/p/abc", false},
		{"https://twitter.com/chef", false},
		{"https://example.com/recipe", false},
		{"", false},
		{"not a url", false},
		{"http://[::1", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyRecipeURL(tt.url))
		})
	}
}

func TestFilterRecipeURLs(t *testing.T) {
	urls := []string{
		"https://www.seriouseats.com/recipe/pasta",
		"https://www.youtube.com/watch?v=123",
		"https://cooking.nytimes.com/recipes/456",
		"https://www.instagram.com/p/abc",
		"https://random-blog.com/recipe/soup",
	}
	assert.Equal(t, []string{
		"https://www.seriouseats.com/recipe/pasta",
		"https://cooking.nytimes.com/recipes/456",
		"https://random-blog.com/recipe/soup",
	}, FilterRecipeURLs(urls))
	assert.Empty(t, FilterRecipeURLs(nil))
}

func TestSiteNameFromURL(t *testing.T) {
	assert.Equal(t, "seriouseats.com", siteNameFromURL("https://www.seriouseats.com/x"))
	assert.Equal(t, "cooking.nytimes.com", siteNameFromURL("https://cooking.nytimes.com/r/1"))
}
