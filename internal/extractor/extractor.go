package extractor

import (
	"recipe-extraction-api/internal/recipe"
)

// Method is how a recipe was obtained.
type Method string

const (
	MethodSchemaOrg     Method = "schema_org"
	MethodLLMTranscript Method = "llm_transcript"
	MethodManual        Method = "manual"
	MethodFailed        Method = "failed"
)

// Platform is the kind of source a URL points at.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformDirectURL Platform = "direct_url"
	PlatformManual    Platform = "manual"
)

// Result is the outcome of one extraction. Success is true exactly when
// Recipe is set and Method is not MethodFailed; build results with
// succeeded and failed to keep that so.
type Result struct {
	Success        bool           `json:"success"`
	Method         Method         `json:"method"`
	Recipe         *recipe.Recipe `json:"recipe,omitempty"`
	SourcePlatform Platform       `json:"source_platform"`

	VideoURL        string `json:"video_url,omitempty"`
	RecipePageURL   string `json:"recipe_page_url,omitempty"`
	RecipeSiteName  string `json:"recipe_site_name,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	OriginalCaption string `json:"original_caption,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`

	Categories      map[string][]string `json:"categories"`
	Tags            []string            `json:"tags"`
	Confidence      float64             `json:"confidence"`
	RawData         string              `json:"raw_data,omitempty"`
	Error           string              `json:"error,omitempty"`
	FoundRecipeURLs []string            `json:"found_recipe_urls"`
}

func succeeded(method Method, platform Platform, r *recipe.Recipe, confidence float64) *Result {
	if r == nil || method == MethodFailed {
		return failed(platform, "extraction produced no recipe")
	}
	return &Result{
		Success:         true,
		Method:          method,
		Recipe:          r,
		SourcePlatform:  platform,
		Confidence:      confidence,
		Categories:      map[string][]string{},
		Tags:            []string{},
		FoundRecipeURLs: []string{},
	}
}

func failed(platform Platform, errMsg string) *Result {
	return &Result{
		Method:          MethodFailed,
		SourcePlatform:  platform,
		Error:           errMsg,
		Categories:      map[string][]string{},
		Tags:            []string{},
		FoundRecipeURLs: []string{},
	}
}

// Failed builds a failed result for callers outside the pipeline.
func Failed(platform Platform, errMsg string) *Result {
	return failed(platform, errMsg)
}

// Manual wraps a user-supplied recipe as a fully confident result.
func Manual(r *recipe.Recipe, categories map[string][]string, tags []string) *Result {
	res := succeeded(MethodManual, PlatformManual, r, 1.0)
	if categories != nil {
		res.Categories = categories
	}
	if tags != nil {
		res.Tags = tags
	}
	return res
}

// mergeTags returns the distinct tags of both lists, first list first.
func mergeTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// appendUnique appends the URLs of add not already in seen.
func appendUnique(dst []string, seen map[string]struct{}, add ...string) []string {
	for _, u := range add {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		dst = append(dst, u)
	}
	return dst
}
