// Package recipe defines the structured recipe produced by every extraction
// method, along with the parsers shared between them.
package recipe

import (
	"regexp"
	"strconv"
)

// DefaultTitle is used when a source carries no recipe name.
const DefaultTitle = "Untitled Recipe"

// Ingredient is one ingredient line decomposed into its parts.
type Ingredient struct {
	RawText     string `json:"raw_text"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Preparation string `json:"preparation,omitempty"`
}

// Recipe is a structured recipe. Time fields are whole minutes; zero means unknown.
type Recipe struct {
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Ingredients   []Ingredient `json:"ingredients"`
	Instructions  []string     `json:"instructions"`
	PrepTimeMins  int          `json:"prep_time_mins,omitempty"`
	CookTimeMins  int          `json:"cook_time_mins,omitempty"`
	TotalTimeMins int          `json:"total_time_mins,omitempty"`
	Servings      string       `json:"servings,omitempty"`
	Cuisine       string       `json:"cuisine,omitempty"`
	Category      string       `json:"category,omitempty"`
	ImageURL      string       `json:"image_url,omitempty"`
	Author        string       `json:"author,omitempty"`
	SourceURL     string       `json:"source_url,omitempty"`
	SiteName      string       `json:"site_name,omitempty"`
}

// HasTitle reports whether the title is set to something other than the default.
func (r *Recipe) HasTitle() bool {
	return r.Title != "" && r.Title != DefaultTitle
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration converts a PT#H#M#S duration to whole minutes, truncating
// seconds. Unparseable or zero durations return 0.
func ParseISODuration(d string) int {
	m := isoDurationPattern.FindStringSubmatch(d)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	total := hours*60 + minutes + seconds/60
	if total < 0 {
		return 0
	}
	return total
}
