package storage

import "time"

// Ingredient is a stored ingredient line.
type Ingredient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Preparation string `json:"preparation,omitempty"`
	RawText     string `json:"raw_text,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Tag sources.
const (
	TagSourceHashtag = "hashtag"
	TagSourceKeyword = "keyword"
	TagSourceManual  = "manual"
)

type Tag struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Source string `json:"source,omitempty"`
}

// Recipe is a stored recipe with its ingredients, categories and tags.
type Recipe struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Instructions  []string `json:"instructions"`
	PrepTimeMins  int      `json:"prep_time_mins,omitempty"`
	CookTimeMins  int      `json:"cook_time_mins,omitempty"`
	TotalTimeMins int      `json:"total_time_mins,omitempty"`
	Servings      string   `json:"servings,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`

	Ingredients []Ingredient `json:"ingredients"`
	Categories  []Category   `json:"categories"`
	Tags        []Tag        `json:"tags"`

	VideoURL        string `json:"video_url,omitempty"`
	VideoPlatform   string `json:"video_platform,omitempty"`
	RecipePageURL   string `json:"recipe_page_url,omitempty"`
	RecipeSiteName  string `json:"recipe_site_name,omitempty"`
	OriginalCaption string `json:"original_caption,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`

	ExtractionMethod     string  `json:"extraction_method,omitempty"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
	RawExtraction        string  `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the list-view projection of a recipe.
type Summary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
	TotalTimeMins  int       `json:"total_time_mins,omitempty"`
	Difficulty     string    `json:"difficulty,omitempty"`
	SourcePlatform string    `json:"source_platform,omitempty"`
	RecipeSiteName string    `json:"recipe_site_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IngredientInput is an ingredient supplied by a user.
type IngredientInput struct {
	Name        string `json:"name"`
	Quantity    string `json:"quantity,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Preparation string `json:"preparation,omitempty"`
	RawText     string `json:"raw_text,omitempty"`
}

// ManualRecipe is the body of a manual create.
type ManualRecipe struct {
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Instructions  []string          `json:"instructions,omitempty"`
	PrepTimeMins  int               `json:"prep_time_mins,omitempty"`
	CookTimeMins  int               `json:"cook_time_mins,omitempty"`
	TotalTimeMins int               `json:"total_time_mins,omitempty"`
	Servings      string            `json:"servings,omitempty"`
	Difficulty    string            `json:"difficulty,omitempty"`
	Ingredients   []IngredientInput `json:"ingredients,omitempty"`
	CategoryIDs   []string          `json:"category_ids,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	VideoURL      string            `json:"video_url,omitempty"`
	RecipePageURL string            `json:"recipe_page_url,omitempty"`
	ThumbnailURL  string            `json:"thumbnail_url,omitempty"`
}

// RecipeUpdate is a partial update: nil fields are left untouched, non-nil
// lists replace the stored ones.
type RecipeUpdate struct {
	Title         *string            `json:"title,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Instructions  *[]string          `json:"instructions,omitempty"`
	PrepTimeMins  *int               `json:"prep_time_mins,omitempty"`
	CookTimeMins  *int               `json:"cook_time_mins,omitempty"`
	TotalTimeMins *int               `json:"total_time_mins,omitempty"`
	Servings      *string            `json:"servings,omitempty"`
	Difficulty    *string            `json:"difficulty,omitempty"`
	Ingredients   *[]IngredientInput `json:"ingredients,omitempty"`
	CategoryIDs   *[]string          `json:"category_ids,omitempty"`
	Tags          *[]string          `json:"tags,omitempty"`
}

// SearchQuery filters a recipe search. List filters are AND-matched.
type SearchQuery struct {
	Text        string
	Ingredients []string
	Categories  []string
	Tags        []string
	Difficulty  string
	MaxTimeMins int
	Page        int
	PageSize    int
}
