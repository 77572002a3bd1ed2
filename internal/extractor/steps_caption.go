package extractor

import (
	"context"
	"log"

	"recipe-extraction-api/internal/llm"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/urlnorm"
)

const (
	errCaptionInput    = "Instagram requires manual caption or recipe URL"
	captionRecipeTitle = "Instagram Recipe"
)

// captionFlow handles platforms whose posts cannot be fetched unattended;
// it works only from the caption or recipe URL the user supplies.
func (p *Pipeline) captionFlow() flow {
	return flow{
		name: "caption",
		steps: []step{
			{"require_input", requireCaptionInput},
			{"manual_recipe_url", p.tryManualRecipeURL},
			{"caption_urls", p.tryCaptionURLs},
			{"llm", p.tryCaptionLLM},
		},
		exhausted: captionExhausted,
	}
}

func requireCaptionInput(_ context.Context, st *flowState) stepOutcome {
	if st.req.ManualCaption == "" && st.req.ManualRecipeURL == "" {
		res := failed(PlatformInstagram, errCaptionInput)
		res.VideoURL = st.req.URL
		return terminate(res)
	}
	st.hashtags = urlnorm.ExtractHashtags(st.req.ManualCaption)
	return noSignal()
}

func captionSchemaResult(st *flowState, pageURL string, parsed *recipe.Recipe) *Result {
	res := succeeded(MethodSchemaOrg, PlatformInstagram, parsed, confidenceCaption)
	res.VideoURL = st.req.URL
	res.RecipePageURL = pageURL
	res.RecipeSiteName = parsed.SiteName
	res.OriginalCaption = st.req.ManualCaption
	res.AuthorName = parsed.Author
	res.Tags = append(res.Tags, st.hashtags...)
	return res
}

func (p *Pipeline) tryManualRecipeURL(ctx context.Context, st *flowState) stepOutcome {
	if st.req.ManualRecipeURL == "" {
		return noSignal()
	}
	parsed, ok := p.fetchSchema(ctx, st.req.ManualRecipeURL)
	if !ok {
		log.Printf("Pipeline: Manual recipe URL %s had no usable recipe", st.req.ManualRecipeURL)
		return noSignal()
	}
	return accept(captionSchemaResult(st, st.req.ManualRecipeURL, parsed))
}

func (p *Pipeline) tryCaptionURLs(ctx context.Context, st *flowState) stepOutcome {
	if st.req.ManualCaption == "" {
		return noSignal()
	}
	st.captionURLs = FilterRecipeURLs(urlnorm.ExtractURLs(st.req.ManualCaption))
	for _, pageURL := range st.captionURLs {
		if parsed, ok := p.fetchSchema(ctx, pageURL); ok {
			res := captionSchemaResult(st, pageURL, parsed)
			res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.captionURLs...)
			return accept(res)
		}
	}
	return noSignal()
}

func (p *Pipeline) tryCaptionLLM(ctx context.Context, st *flowState) stepOutcome {
	if p.LLM == nil || st.req.ManualCaption == "" {
		return noSignal()
	}
	out := p.LLM.Extract(ctx, llm.Request{
		Title:       captionRecipeTitle,
		Description: st.req.ManualCaption,
		SourceURL:   st.req.URL,
	})
	if !llmAccepts(out) {
		return noSignal()
	}

	res := succeeded(MethodLLMTranscript, PlatformInstagram, out.Recipe, out.Confidence)
	res.VideoURL = st.req.URL
	res.OriginalCaption = st.req.ManualCaption
	if out.Categories != nil {
		res.Categories = out.Categories
	}
	res.Tags = mergeTags(st.hashtags, out.Tags)
	res.RawData = out.RawResponse
	res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.captionURLs...)
	return accept(res)
}

func captionExhausted(st *flowState) *Result {
	res := failed(PlatformInstagram, errCaptionInput)
	res.VideoURL = st.req.URL
	res.OriginalCaption = st.req.ManualCaption
	res.Tags = append(res.Tags, st.hashtags...)
	res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.captionURLs...)
	return res
}
