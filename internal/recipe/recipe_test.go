package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT1H30M", 90},
		{"PT45M", 45},
		{"PT2H", 120},
		{"PT30M30S", 30},
		{"PT90S", 1},
		{"PT59S", 0},
		{"PT0M", 0},
		{"invalid", 0},
		{"", 0},
		{"P1D", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseISODuration(tt.in))
		})
	}
}

func TestParseIngredient(t *testing.T) {
	tests := []struct {
		line string
		want Ingredient
	}{
		{
			line: "2 cups flour",
			want: Ingredient{RawText: "2 cups flour", Quantity: "2", Unit: "cups", Name: "flour"},
		},
		{
			line: "4 cloves garlic, minced",
			want: Ingredient{RawText: "4 cloves garlic, minced", Quantity: "4", Unit: "cloves", Name: "garlic", Preparation: "minced"},
		},
		{
			line: "400g spaghetti",
			want: Ingredient{RawText: "400g spaghetti", Quantity: "400", Unit: "g", Name: "spaghetti"},
		},
		{
			line: "1/4 cup olive oil",
			want: Ingredient{RawText: "1/4 cup olive oil", Quantity: "1/4", Unit: "cup", Name: "olive oil"},
		},
		{
			line: "½ TSP Salt",
			want: Ingredient{RawText: "½ TSP Salt", Quantity: "½", Unit: "tsp", Name: "Salt"},
		},
		{
			line: "2 large eggs",
			want: Ingredient{RawText: "2 large eggs", Quantity: "2", Unit: "large", Name: "eggs"},
		},
		{
			line: "3 tablespoons butter (softened)",
			want: Ingredient{RawText: "3 tablespoons butter (softened)", Quantity: "3", Unit: "tablespoons", Name: "butter", Preparation: "softened"},
		},
		{
			line: "Fresh basil leaves",
			want: Ingredient{RawText: "Fresh basil leaves", Name: "Fresh basil leaves"},
		},
		{
			line: "  2 lemons  ",
			want: Ingredient{RawText: "  2 lemons  ", Quantity: "2", Name: "lemons"},
		},
		{
			line: "1-2 pinches chili flakes",
			want: Ingredient{RawText: "1-2 pinches chili flakes", Quantity: "1-2", Unit: "pinches", Name: "chili flakes"},
		},
		{
			line: "salt, to taste",
			want: Ingredient{RawText: "salt, to taste", Name: "salt", Preparation: "to taste"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredient(tt.line))
		})
	}
}

func TestParseIngredientNameNeverEmpty(t *testing.T) {
	for _, line := range []string{"2", "(optional)", ", chopped", "   ", "3 cups"} {
		ing := ParseIngredient(line)
		assert.NotEmpty(t, ing.Name, "line %q", line)
		assert.Equal(t, line, ing.RawText)
	}
}

func TestParseIngredientsSkipsBlank(t *testing.T) {
	got := ParseIngredients([]string{"1 egg", "", "  ", "2 cups milk"})
	assert.Len(t, got, 2)
	assert.Equal(t, "egg", got[0].Name)
	assert.Equal(t, "milk", got[1].Name)
}

func TestHasTitle(t *testing.T) {
	assert.False(t, (&Recipe{Title: DefaultTitle}).HasTitle())
	assert.False(t, (&Recipe{}).HasTitle())
	assert.True(t, (&Recipe{Title: "Soup"}).HasTitle())
}
