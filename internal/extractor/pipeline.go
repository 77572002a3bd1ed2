package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"recipe-extraction-api/internal/llm"
	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/search"
)

// Searcher finds recipe pages by title.
type Searcher interface {
	Search(ctx context.Context, title, author string, minSimilarity float64, maxResults int) search.Outcome
}

// RecipeLLM extracts a recipe from free text.
type RecipeLLM interface {
	Extract(ctx context.Context, req llm.Request) *llm.Result
}

// StepObserver records step outcomes and finished extractions.
type StepObserver interface {
	ObserveStep(flow, step, outcome string)
	ObserveExtraction(platform, method string, success bool, elapsed time.Duration)
}

// Request is one extraction call.
type Request struct {
	URL             string `json:"url"`
	ManualCaption   string `json:"manual_caption,omitempty"`
	ManualRecipeURL string `json:"manual_recipe_url,omitempty"`
}

// Pipeline runs the fallback chain for each platform. It keeps no state
// between calls; nil collaborators simply produce no signal.
type Pipeline struct {
	Pages    PageFetcher
	Videos   VideoFetcher
	Search   Searcher
	LLM      RecipeLLM
	Expander LinkExpander
	Metrics  StepObserver

	MaxTranscriptLength int
	Timeout             time.Duration
}

type stepKind int

const (
	stepNoSignal stepKind = iota
	stepAccepted
	stepTerminal
)

func (k stepKind) String() string {
	switch k {
	case stepAccepted:
		return "accepted"
	case stepTerminal:
		return "terminal"
	default:
		return "no_signal"
	}
}

type stepOutcome struct {
	kind   stepKind
	result *Result
}

func accept(r *Result) stepOutcome    { return stepOutcome{kind: stepAccepted, result: r} }
func terminate(r *Result) stepOutcome { return stepOutcome{kind: stepTerminal, result: r} }
func noSignal() stepOutcome           { return stepOutcome{kind: stepNoSignal} }

// flowState is what the steps of one call accumulate.
type flowState struct {
	req      Request
	platform Platform

	video       *VideoContent
	hashtags    []string
	foundURLs   []string
	seenURLs    map[string]struct{}
	captionURLs []string
}

func (st *flowState) addFound(urls ...string) {
	if st.seenURLs == nil {
		st.seenURLs = make(map[string]struct{})
	}
	st.foundURLs = appendUnique(st.foundURLs, st.seenURLs, urls...)
}

type step struct {
	name string
	run  func(ctx context.Context, st *flowState) stepOutcome
}

type flow struct {
	name      string
	steps     []step
	exhausted func(st *flowState) *Result
}

// run evaluates steps in order until one accepts or terminates.
func (p *Pipeline) run(ctx context.Context, f flow, st *flowState) *Result {
	for _, s := range f.steps {
		if err := ctx.Err(); err != nil {
			logger.LogError("Pipeline: %s flow stopped before %s: %v", f.name, s.name, err)
			break
		}
		out := s.run(ctx, st)
		log.Printf("Pipeline: %s/%s -> %s", f.name, s.name, out.kind)
		if p.Metrics != nil {
			p.Metrics.ObserveStep(f.name, s.name, out.kind.String())
		}
		if out.kind != stepNoSignal && out.result != nil {
			return out.result
		}
	}
	return f.exhausted(st)
}

// fetchSchema fetches a candidate page and returns its recipe when it has at
// least one ingredient.
func (p *Pipeline) fetchSchema(ctx context.Context, pageURL string) (*recipe.Recipe, bool) {
	if p.Pages == nil {
		return nil, false
	}
	out := p.Pages.FetchRecipe(ctx, pageURL)
	if out.Status != PageFound || out.Recipe == nil {
		if out.Err != nil {
			log.Printf("Pipeline: Candidate %s: %s (%v)", pageURL, out.Status, out.Err)
		}
		return nil, false
	}
	if len(out.Recipe.Ingredients) == 0 {
		log.Printf("Pipeline: Candidate %s has a recipe without ingredients, skipping", pageURL)
		return nil, false
	}
	return out.Recipe, true
}

// llmAccepts reports whether an LLM result clears the confidence bar.
func llmAccepts(res *llm.Result) bool {
	return res != nil && res.Recipe != nil && res.Confidence > minLLMConfidence
}

const (
	confidenceDescriptionURL = 0.95
	confidencePhraseURL      = 0.90
	confidenceOwnerComment   = 0.85
	confidenceStrongSearch   = 0.80
	confidenceWeakSearch     = 0.70
	confidenceCaption        = 0.90
	confidenceDirect         = 0.95
	minLLMConfidence         = 0.30

	strongSearchSimilarity = 0.7
	searchMinSimilarity    = 0.4
	searchMaxResults       = 5
)

// Extract runs the flow for the request's platform. It always returns a
// well-formed result, even if a collaborator panics.
func (p *Pipeline) Extract(ctx context.Context, req Request) (res *Result) {
	start := time.Now()
	st := p.prepare(req)

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.LogError("Pipeline: Recovered from panic extracting %s: %v", st.req.URL, r)
			res = failed(st.platform, fmt.Sprintf("internal error during extraction: %v", r))
		}
		log.Printf("Pipeline: %s %s finished: success=%v method=%s confidence=%.2f in %s",
			st.platform, st.req.URL, res.Success, res.Method, res.Confidence, time.Since(start).Round(time.Millisecond))
		if p.Metrics != nil {
			p.Metrics.ObserveExtraction(string(res.SourcePlatform), string(res.Method), res.Success, time.Since(start))
		}
	}()

	return p.run(ctx, p.flowFor(st.platform), st)
}
