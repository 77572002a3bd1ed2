package llm

import (
	"bytes"
	"math"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"recipe-extraction-api/internal/recipe"
)

var (
	fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	jsonObjectPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseResponse finds the JSON object in a model reply. It tries the whole
// text, then the first fenced code block, then the first top-level {...}
// span, and reports false when none of them is a JSON object.
func ParseResponse(text string) ([]byte, bool) {
	candidates := []string{strings.TrimSpace(text)}
	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if span := firstObjectSpan(text); span != "" {
		candidates = append(candidates, span)
	}
	if span := jsonObjectPattern.FindString(text); span != "" {
		candidates = append(candidates, span)
	}

	for _, c := range candidates {
		if isJSONObject([]byte(c)) {
			return []byte(c), true
		}
	}
	return nil, false
}

func isJSONObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var obj map[string]jsoniter.RawMessage
	return json.Unmarshal(data, &obj) == nil
}

// firstObjectSpan returns the first brace-balanced {...} in s, skipping
// braces inside string literals.
func firstObjectSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

type llmIngredient recipe.Ingredient

// UnmarshalJSON accepts a bare string or an ingredient object.
func (ing *llmIngredient) UnmarshalJSON(data []byte) error {
	*ing = llmIngredient{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] != '{' {
		s := recipe.ResolveText(data)
		ing.RawText, ing.Name = s, s
		return nil
	}
	var obj struct {
		RawText     recipe.Text `json:"raw_text"`
		Name        recipe.Text `json:"name"`
		Quantity    recipe.Text `json:"quantity"`
		Unit        recipe.Text `json:"unit"`
		Preparation recipe.Text `json:"preparation"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	*ing = llmIngredient{
		RawText:     obj.RawText.String(),
		Name:        obj.Name.String(),
		Quantity:    obj.Quantity.String(),
		Unit:        obj.Unit.String(),
		Preparation: obj.Preparation.String(),
	}
	if ing.RawText == "" && ing.Name != "" {
		ing.RawText = strings.TrimSpace(strings.Join([]string{ing.Quantity, ing.Unit, ing.Name}, " "))
	}
	if ing.Name == "" {
		ing.Name = ing.RawText
	}
	return nil
}

// instructionSteps accepts a list of steps or one newline-separated string.
type instructionSteps []string

func (s *instructionSteps) UnmarshalJSON(data []byte) error {
	*s = nil
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				*s = append(*s, line)
			}
		}
		return nil
	}
	var list recipe.TextList
	_ = list.UnmarshalJSON(data)
	*s = instructionSteps(list)
	return nil
}

// extraction is the model's JSON object after tolerant decoding.
type extraction struct {
	Recipe     *recipe.Recipe
	Difficulty string
	Categories map[string][]string
	Tags       []string
}

// decodeExtraction converts the model object field by field; a field with an
// unexpected shape is left empty rather than failing the whole object.
func decodeExtraction(obj []byte, sourceURL string) *extraction {
	var raw map[string]jsoniter.RawMessage
	_ = json.Unmarshal(obj, &raw)
	field := func(key string, v interface{}) {
		if b, ok := raw[key]; ok {
			_ = json.Unmarshal(b, v)
		}
	}

	var (
		title, description, servings, difficulty recipe.Text
		prep, cook, total                        recipe.Minutes
		steps                                    instructionSteps
		tags                                     recipe.TextList
		rawIngredients                           []jsoniter.RawMessage
		rawCategories                            map[string]recipe.TextList
	)
	field("title", &title)
	field("description", &description)
	field("servings", &servings)
	field("difficulty", &difficulty)
	field("prep_time_mins", &prep)
	field("cook_time_mins", &cook)
	field("total_time_mins", &total)
	field("instructions", &steps)
	field("tags", &tags)
	field("ingredients", &rawIngredients)
	field("categories", &rawCategories)

	var ingredients []recipe.Ingredient
	for _, ri := range rawIngredients {
		var ing llmIngredient
		_ = ing.UnmarshalJSON(ri)
		if ing.Name != "" {
			ingredients = append(ingredients, recipe.Ingredient(ing))
		}
	}

	r := &recipe.Recipe{
		Title:         title.String(),
		Description:   description.String(),
		Ingredients:   ingredients,
		Instructions:  []string(steps),
		PrepTimeMins:  int(prep),
		CookTimeMins:  int(cook),
		TotalTimeMins: int(total),
		Servings:      servings.String(),
		SourceURL:     sourceURL,
	}
	if r.Title == "" {
		r.Title = recipe.DefaultTitle
	}

	categories := make(map[string][]string, len(rawCategories))
	for typ, vals := range rawCategories {
		categories[typ] = []string(vals)
	}

	return &extraction{
		Recipe:     r,
		Difficulty: strings.ToLower(difficulty.String()),
		Categories: categories,
		Tags:       []string(tags),
	}
}

// Confidence scores a recipe's completeness between 0 and 1, rounded to two
// decimals. Weights: title 1, ingredients 2 (1 for fewer than 3),
// instructions 2 (1 for fewer than 3), time 1, servings 0.5, description 0.5.
func Confidence(r *recipe.Recipe) float64 {
	if r == nil {
		return 0
	}
	const maxScore = 7.5
	score := 0.0

	if r.HasTitle() {
		score++
	}
	switch n := len(r.Ingredients); {
	case n >= 3:
		score += 2
	case n >= 1:
		score++
	}
	switch n := len(r.Instructions); {
	case n >= 3:
		score += 2
	case n >= 1:
		score++
	}
	if r.TotalTimeMins > 0 || (r.PrepTimeMins > 0 && r.CookTimeMins > 0) {
		score++
	}
	if r.Servings != "" {
		score += 0.5
	}
	if r.Description != "" {
		score += 0.5
	}
	return math.Round(score/maxScore*100) / 100
}
