package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := Default()

	assert.Equal(t,
		[]string{"dietary", "protein", "course", "cuisine", "method", "season", "difficulty", "time"},
		tax.Types())
	assert.Contains(t, tax.Values("dietary"), "vegetarian")
	assert.Contains(t, tax.Values("cuisine"), "italian")
	assert.Len(t, tax.Values("cuisine"), 13)
	assert.True(t, tax.Allows("time", "15-30m"))
	assert.False(t, tax.Allows("time", "quick"))
	assert.Nil(t, tax.Values("unknown"))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestValuesReturnsCopy(t *testing.T) {
	tax := Default()
	vals := tax.Values("season")
	vals[0] = "monsoon"

	assert.Equal(t, "spring", tax.Values("season")[0])
}

func TestFilter(t *testing.T) {
	tax := Default()

	got := tax.Filter(map[string][]string{
		"cuisine": {"italian", "martian", "italian"},
		"course":  {"brunch"},
		"mood":    {"happy"},
		"dietary": {"vegan"},
	})

	assert.Equal(t, map[string][]string{
		"cuisine": {"italian"},
		"dietary": {"vegan"},
	}, got)
}

func TestTypeOf(t *testing.T) {
	typ, ok := Default().TypeOf("grilling")
	require.True(t, ok)
	assert.Equal(t, "method", typ)

	_, ok = Default().TypeOf("nope")
	assert.False(t, ok)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate type": "- {type: a, values: [x]}\n- {type: a, values: [y]}",
		"empty values":   "- {type: a, values: []}",
		"missing type":   "- {values: [x]}",
		"not a list":     "type: a",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
