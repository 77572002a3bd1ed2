package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/taxonomy"
)

// Completer returns one text completion for a system instruction and prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Request is the text an extraction works from. Empty fields are sent as "(none)".
type Request struct {
	Title       string
	Description string
	Transcript  string
	SourceURL   string
}

// Result is the outcome of one extraction. Recipe is nil whenever Error is set.
type Result struct {
	Recipe      *recipe.Recipe
	Categories  map[string][]string
	Tags        []string
	Confidence  float64
	RawResponse string
	Error       string
}

// Extractor turns free text into a recipe with a chat model.
type Extractor struct {
	LLM      Completer
	Taxonomy *taxonomy.Taxonomy
	Timeout  time.Duration
}

// NewExtractor creates an extractor. A client without an API key leaves the
// extractor unconfigured, so every call fails without a network request.
func NewExtractor(client *Client, tax *taxonomy.Taxonomy, timeout time.Duration) *Extractor {
	e := &Extractor{Taxonomy: tax, Timeout: timeout}
	if client.Configured() {
		e.LLM = client
	}
	if e.Taxonomy == nil {
		e.Taxonomy = taxonomy.Default()
	}
	if e.Timeout <= 0 {
		e.Timeout = 60 * time.Second
	}
	return e
}

// Extract asks the model for a recipe and scores its completeness. It never
// returns an error: failures are reported in Result.Error with confidence 0.
func (e *Extractor) Extract(ctx context.Context, req Request) *Result {
	if e.LLM == nil {
		return &Result{Error: "OpenAI API key not configured"}
	}
	tax := e.Taxonomy
	if tax == nil {
		tax = taxonomy.Default()
	}

	prompt := BuildPrompt(tax, req.Title, req.Description, req.Transcript)
	log.Printf("LLMExtractor: Extracting %q (description %d chars, transcript %d chars)",
		req.Title, len(req.Description), len(req.Transcript))

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	reply, err := e.LLM.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		logger.LogError("LLMExtractor: Completion failed for %q: %v", req.Title, err)
		return &Result{Error: fmt.Sprintf("LLM extraction failed: %v", err)}
	}
	if strings.TrimSpace(reply) == "" {
		return &Result{Error: "Empty response from LLM"}
	}

	obj, ok := ParseResponse(reply)
	if !ok {
		logger.LogError("LLMExtractor: Could not parse JSON from reply for %q", req.Title)
		return &Result{Error: "Could not parse JSON from LLM response", RawResponse: reply}
	}

	ex := decodeExtraction(obj, req.SourceURL)
	categories := tax.Filter(ex.Categories)
	if ex.Difficulty != "" && len(categories["difficulty"]) == 0 && tax.Allows("difficulty", ex.Difficulty) {
		categories["difficulty"] = []string{ex.Difficulty}
	}

	res := &Result{
		Recipe:      ex.Recipe,
		Categories:  categories,
		Tags:        ex.Tags,
		Confidence:  Confidence(ex.Recipe),
		RawResponse: reply,
	}
	log.Printf("LLMExtractor: Extracted %q with %d ingredients, %d steps, confidence %.2f",
		res.Recipe.Title, len(res.Recipe.Ingredients), len(res.Recipe.Instructions), res.Confidence)
	return res
}
