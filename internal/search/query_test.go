package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	kw := Keywords("The Best Pasta Recipe")
	assert.Contains(t, kw, "pasta")
	assert.NotContains(t, kw, "the")
	assert.NotContains(t, kw, "best")
	assert.NotContains(t, kw, "recipe")

	assert.Len(t, Keywords("Chicken Tikka Masala"), 3)
	assert.Empty(t, Keywords("The Best Easy Recipe"))
}

func TestNormalizeText(t *testing.T) {
	tests := map[string]string{
		"HELLO World":   "hello world",
		"Hello! World?": "hello world",
		"hello   world": "hello world",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeText(in), in)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		min, max float64
	}{
		{"identical", "Chicken Tikka Masala", "Chicken Tikka Masala", 1, 1},
		{"filler words ignored", "Chicken Tikka Masala Recipe", "Easy Chicken Tikka Masala", 0.7, 1},
		{"disjoint", "Chocolate Cake", "Chicken Stir Fry", 0, 0},
		{"partial overlap", "Pasta Carbonara", "Spaghetti Carbonara", 0.3, 0.7},
		{"empty left", "", "Pasta", 0, 0},
		{"empty right", "Pasta", "", 0, 0},
		{"only stop words", "The Best Easy Recipe", "Best Recipe", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
			assert.Equal(t, got, Similarity(tt.b, tt.a), "similarity must be symmetric")
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name, title, author string
		want                string
	}{
		{"plain title", "Pasta Carbonara", "", "Pasta Carbonara"},
		{"hashtags and shorts", "Pasta #shorts #cooking", "", "Pasta"},
		{"pipe suffix", "Pasta Carbonara | Chef John", "", "Pasta Carbonara"},
		{"with author", "Pasta Carbonara", "Chef John", "Pasta Carbonara Chef John"},
		{"short author dropped", "Pasta Carbonara", "JB", "Pasta Carbonara"},
		{"emoji removed", "Pasta 🍝 Recipe", "", "Pasta Recipe"},
		{"shortbread kept", "Shortbread Cookies Shorts", "", "Shortbread Cookies"},
		{"apostrophe and hyphen kept", "Mom's Stir-Fry!", "", "Mom's Stir-Fry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.title, tt.author))
		})
	}
}
