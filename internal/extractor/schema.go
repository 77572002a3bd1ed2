package extractor

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"recipe-extraction-api/internal/recipe"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// schemaType is an @type value, which may be a single string or a list.
type schemaType []string

func (t *schemaType) UnmarshalJSON(data []byte) error {
	*t = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = schemaType{s}
		}
	case '[':
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for _, it := range items {
			var s string
			if json.Unmarshal(it, &s) == nil {
				*t = append(*t, s)
			}
		}
	}
	return nil
}

func (t schemaType) is(name string) bool {
	for _, v := range t {
		if v == name {
			return true
		}
	}
	return false
}

// resolveEntity reads a string, the first element of a list, or the first
// non-empty of keys on an object.
func resolveEntity(data []byte, keys ...string) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		return recipe.ResolveText(data)
	case '[':
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
			return ""
		}
		return resolveEntity(items[0], keys...)
	case '{':
		var obj map[string]jsoniter.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return ""
		}
		for _, k := range keys {
			if raw, ok := obj[k]; ok {
				var s string
				if json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

// imageRef is an image given as a URL string, an ImageObject or a list of either.
type imageRef string

func (r *imageRef) UnmarshalJSON(data []byte) error {
	*r = imageRef(resolveEntity(data, "url", "contentUrl"))
	return nil
}

// personRef is an author given as a name, a Person/Organization or a list.
type personRef string

func (r *personRef) UnmarshalJSON(data []byte) error {
	*r = personRef(resolveEntity(data, "name"))
	return nil
}

// ingredientList is recipeIngredient: strings, or objects carrying text or name.
type ingredientList []string

func (l *ingredientList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) == nil {
			*l = ingredientList{s}
		}
		return nil
	}
	var items []jsoniter.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) == 0 {
			continue
		}
		switch it[0] {
		case '"':
			var s string
			if json.Unmarshal(it, &s) == nil {
				*l = append(*l, s)
			}
		case '{':
			if s := resolveEntity(it, "text", "name"); s != "" {
				*l = append(*l, s)
			}
		}
	}
	return nil
}

// instructionList is recipeInstructions: a block of text, a list of strings,
// or a list of HowToStep / HowToSection objects.
type instructionList []string

type howToItem struct {
	Type            schemaType          `json:"@type"`
	Name            recipe.Text         `json:"name"`
	Text            recipe.Text         `json:"text"`
	ItemListElement jsoniter.RawMessage `json:"itemListElement"`
}

func (l *instructionList) UnmarshalJSON(data []byte) error {
	*l = instructionList(parseInstructions(data))
	return nil
}

func parseInstructions(data []byte) []string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		return splitInstructionText(s)
	case '[':
	default:
		return nil
	}

	var items []jsoniter.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	var steps []string
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) == 0 {
			continue
		}
		switch it[0] {
		case '"':
			var s string
			if json.Unmarshal(it, &s) == nil {
				steps = appendStep(steps, s)
			}
		case '{':
			var item howToItem
			if err := json.Unmarshal(it, &item); err != nil {
				continue
			}
			switch {
			case item.Type.is("HowToSection"):
				if item.Name != "" {
					steps = append(steps, "**"+item.Name.String()+"**")
				}
				steps = append(steps, parseInstructions(item.ItemListElement)...)
			case item.Type.is("HowToStep"), len(item.Type) == 0:
				steps = appendStep(steps, item.Text.String())
			}
		}
	}
	return steps
}

var (
	newlineRuns   = regexp.MustCompile(`\n+`)
	sentenceBreak = regexp.MustCompile(`\.\s+[A-Z]`)
)

// splitInstructionText breaks a text block into steps at newlines and at
// sentence ends followed by a capitalised word.
func splitInstructionText(s string) []string {
	var steps []string
	for _, line := range newlineRuns.Split(s, -1) {
		start := 0
		for _, loc := range sentenceBreak.FindAllStringIndex(line, -1) {
			steps = appendStep(steps, line[start:loc[0]])
			start = loc[1] - 1
		}
		steps = appendStep(steps, line[start:])
	}
	return steps
}

func appendStep(steps []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(steps, s)
	}
	return steps
}

type schemaRecipe struct {
	Type         schemaType      `json:"@type"`
	Name         recipe.Text     `json:"name"`
	Description  recipe.Text     `json:"description"`
	Ingredients  ingredientList  `json:"recipeIngredient"`
	Instructions instructionList `json:"recipeInstructions"`
	PrepTime     recipe.Text     `json:"prepTime"`
	CookTime     recipe.Text     `json:"cookTime"`
	TotalTime    recipe.Text     `json:"totalTime"`
	Yield        recipe.Text     `json:"recipeYield"`
	Cuisine      recipe.Text     `json:"recipeCuisine"`
	Category     recipe.Text     `json:"recipeCategory"`
	Image        imageRef        `json:"image"`
	Author       personRef       `json:"author"`
}

// findSchemaRecipe returns the first Recipe entity across the page's JSON-LD
// blocks. A block may hold a single object, a list, or an @graph container.
func findSchemaRecipe(html string) (*schemaRecipe, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	var found *schemaRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = recipeFromBlock([]byte(strings.TrimSpace(s.Text())))
		return found == nil
	})
	return found, found != nil
}

func recipeFromBlock(data []byte) *schemaRecipe {
	if len(data) == 0 {
		return nil
	}

	var candidates []jsoniter.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil
		}
	case '{':
		var container struct {
			Graph []jsoniter.RawMessage `json:"@graph"`
		}
		if err := json.Unmarshal(data, &container); err != nil {
			return nil
		}
		candidates = append(container.Graph, data)
	default:
		return nil
	}

	for _, c := range candidates {
		c = bytes.TrimSpace(c)
		if len(c) == 0 || c[0] != '{' {
			continue
		}
		var head struct {
			Type schemaType `json:"@type"`
		}
		if json.Unmarshal(c, &head) != nil || !head.Type.is("Recipe") {
			continue
		}
		var r schemaRecipe
		if err := json.Unmarshal(c, &r); err != nil {
			continue
		}
		return &r
	}
	return nil
}

// ParseRecipePage extracts the schema.org/Recipe embedded in html. The bool is
// false when the page carries no Recipe markup.
func ParseRecipePage(html, sourceURL string) (*recipe.Recipe, bool) {
	s, ok := findSchemaRecipe(html)
	if !ok {
		return nil, false
	}

	title := s.Name.String()
	if title == "" {
		title = recipe.DefaultTitle
	}
	instructions := []string(s.Instructions)
	if instructions == nil {
		instructions = []string{}
	}

	return &recipe.Recipe{
		Title:         title,
		Description:   s.Description.String(),
		Ingredients:   recipe.ParseIngredients(s.Ingredients),
		Instructions:  instructions,
		PrepTimeMins:  recipe.ParseISODuration(s.PrepTime.String()),
		CookTimeMins:  recipe.ParseISODuration(s.CookTime.String()),
		TotalTimeMins: recipe.ParseISODuration(s.TotalTime.String()),
		Servings:      s.Yield.String(),
		Cuisine:       s.Cuisine.String(),
		Category:      s.Category.String(),
		ImageURL:      string(s.Image),
		Author:        string(s.Author),
		SourceURL:     sourceURL,
		SiteName:      siteNameFromURL(sourceURL),
	}, true
}
