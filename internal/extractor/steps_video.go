package extractor

import (
	"context"
	"log"

	"recipe-extraction-api/internal/llm"
	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/urlnorm"
)

const (
	errVideoMetadata = "Could not fetch YouTube video metadata"
	errVideoNoRecipe = "Could not extract recipe - no recipe link found and transcript parsing failed"
	noteLinkInBio    = " (Note: creator mentioned recipe is in their bio/profile)"
)

func (p *Pipeline) videoFlow() flow {
	return flow{
		name: "video",
		steps: []step{
			{"fetch", p.fetchVideo},
			{"description_urls", p.tryDescriptionURLs},
			{"phrase_urls", p.tryPhraseURLs},
			{"owner_comments", p.tryOwnerComments},
			{"title_search", p.tryTitleSearch},
			{"llm", p.tryVideoLLM},
		},
		exhausted: videoExhausted,
	}
}

func (p *Pipeline) fetchVideo(ctx context.Context, st *flowState) stepOutcome {
	fail := func() stepOutcome {
		res := failed(PlatformYouTube, errVideoMetadata)
		res.VideoURL = st.req.URL
		return terminate(res)
	}
	if p.Videos == nil {
		return fail()
	}

	content, err := p.Videos.FetchContent(ctx, st.req.URL, p.MaxTranscriptLength)
	if err != nil || content == nil {
		logger.LogError("Pipeline: Video fetch failed for %s: %v", st.req.URL, err)
		return fail()
	}

	st.video = content
	st.hashtags = urlnorm.ExtractHashtags(content.Metadata.Description)
	st.addFound(content.ExtractedURLs...)
	st.addFound(content.PatternMatchedURLs...)
	return noSignal()
}

// videoSchemaResult builds an accepted result for a recipe found on a page
// linked from (or matched to) the video.
func videoSchemaResult(st *flowState, pageURL string, parsed *recipe.Recipe, confidence float64) *Result {
	meta := st.video.Metadata
	res := succeeded(MethodSchemaOrg, PlatformYouTube, parsed, confidence)
	res.VideoURL = st.req.URL
	res.RecipePageURL = pageURL
	res.RecipeSiteName = parsed.SiteName
	res.ThumbnailURL = meta.ThumbnailURL
	res.OriginalCaption = meta.Description
	res.AuthorName = parsed.Author
	if res.AuthorName == "" {
		res.AuthorName = meta.ChannelName
	}
	res.Tags = append(res.Tags, st.hashtags...)
	res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.foundURLs...)
	return res
}

// tryCandidates expands, filters and parses candidates in order; the first
// page with ingredients is accepted at confidence.
func (p *Pipeline) tryCandidates(ctx context.Context, st *flowState, candidates []string, confidence float64) stepOutcome {
	if len(candidates) == 0 {
		return noSignal()
	}
	for _, pageURL := range expandAndFilter(ctx, p.Expander, candidates) {
		if parsed, ok := p.fetchSchema(ctx, pageURL); ok {
			return accept(videoSchemaResult(st, pageURL, parsed, confidence))
		}
	}
	return noSignal()
}

func (p *Pipeline) tryDescriptionURLs(ctx context.Context, st *flowState) stepOutcome {
	return p.tryCandidates(ctx, st, st.video.ExtractedURLs, confidenceDescriptionURL)
}

func (p *Pipeline) tryPhraseURLs(ctx context.Context, st *flowState) stepOutcome {
	return p.tryCandidates(ctx, st, st.video.PatternMatchedURLs, confidencePhraseURL)
}

func (p *Pipeline) tryOwnerComments(ctx context.Context, st *flowState) stepOutcome {
	for _, comment := range st.video.AuthorComments() {
		urls := urlnorm.ExtractURLs(comment)
		urls = append(urls, ExtractRecipeLinksFromPatterns(comment)...)
		st.addFound(urls...)
		if out := p.tryCandidates(ctx, st, urls, confidenceOwnerComment); out.kind == stepAccepted {
			return out
		}
	}
	return noSignal()
}

// tryTitleSearch looks the video title up on recipe sites. A search failure
// counts as zero results.
func (p *Pipeline) tryTitleSearch(ctx context.Context, st *flowState) stepOutcome {
	if p.Search == nil {
		return noSignal()
	}
	meta := st.video.Metadata
	outcome := p.Search.Search(ctx, meta.Title, meta.ChannelName, searchMinSimilarity, searchMaxResults)
	if outcome.Err != nil {
		logger.LogError("Pipeline: Title search failed for %q: %v", meta.Title, outcome.Err)
	}

	for _, r := range outcome.Results {
		confidence := confidenceWeakSearch
		if r.SimilarityScore > strongSearchSimilarity {
			confidence = confidenceStrongSearch
		}
		if parsed, ok := p.fetchSchema(ctx, r.URL); ok {
			log.Printf("Pipeline: Title search matched %s (similarity %.2f)", r.URL, r.SimilarityScore)
			return accept(videoSchemaResult(st, r.URL, parsed, confidence))
		}
	}
	return noSignal()
}

func (p *Pipeline) tryVideoLLM(ctx context.Context, st *flowState) stepOutcome {
	meta := st.video.Metadata
	if p.LLM == nil || (st.video.Transcript == "" && meta.Description == "") {
		return noSignal()
	}

	out := p.LLM.Extract(ctx, llm.Request{
		Title:       meta.Title,
		Description: meta.Description,
		Transcript:  st.video.Transcript,
		SourceURL:   st.req.URL,
	})
	if !llmAccepts(out) {
		if out != nil && out.Error != "" {
			log.Printf("Pipeline: LLM gave no recipe for %s: %s", st.req.URL, out.Error)
		}
		return noSignal()
	}

	res := succeeded(MethodLLMTranscript, PlatformYouTube, out.Recipe, out.Confidence)
	res.VideoURL = st.req.URL
	res.ThumbnailURL = meta.ThumbnailURL
	res.OriginalCaption = meta.Description
	res.AuthorName = meta.ChannelName
	if out.Categories != nil {
		res.Categories = out.Categories
	}
	res.Tags = mergeTags(st.hashtags, out.Tags)
	res.RawData = out.RawResponse
	res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.foundURLs...)
	return accept(res)
}

func videoExhausted(st *flowState) *Result {
	msg := errVideoNoRecipe
	if st.video != nil && st.video.HasLinkInBio {
		msg += noteLinkInBio
	}
	res := failed(PlatformYouTube, msg)
	res.VideoURL = st.req.URL
	if st.video != nil {
		res.ThumbnailURL = st.video.Metadata.ThumbnailURL
		res.OriginalCaption = st.video.Metadata.Description
		res.AuthorName = st.video.Metadata.ChannelName
	}
	res.Tags = append(res.Tags, st.hashtags...)
	res.FoundRecipeURLs = append(res.FoundRecipeURLs, st.foundURLs...)
	return res
}
