package llm

import (
	"strings"

	"recipe-extraction-api/internal/taxonomy"
)

// systemPrompt is sent with every extraction request.
const systemPrompt = "You are a recipe extraction assistant. Extract structured recipe data from video transcripts and descriptions. Always respond with valid JSON only."

const extractionTemplate = `Extract a structured recipe from the following content. The content may be a video transcript, description, or caption.

Return ONLY valid JSON matching this exact schema (no markdown, no explanation):

{
  "title": "string - recipe name",
  "description": "string - 1-2 sentence description, or null",
  "ingredients": [
    {
      "raw_text": "original text",
      "name": "ingredient name",
      "quantity": "amount or null",
      "unit": "unit or null",
      "preparation": "prep notes or null"
    }
  ],
  "instructions": ["Step 1...", "Step 2..."],
  "prep_time_mins": "number or null",
  "cook_time_mins": "number or null",
  "total_time_mins": "number or null",
  "servings": "string or null",
  "difficulty": "easy|medium|hard",
  "categories": {
    "dietary": ["vegetarian", ...],
    "protein": ["chicken", ...],
    "course": ["dinner", ...],
    "cuisine": ["italian", ...],
    "method": ["baking", ...],
    "season": ["summer", ...],
    "time": ["30-60m", ...]
  },
  "tags": ["#hashtag1", "keyword2", ...]
}

ALLOWED CATEGORY VALUES:
{allowed}

RULES:
1. If ingredients aren't explicitly listed, infer from context
2. If instructions aren't step-by-step, create logical steps from the content
3. If info is missing, use null (don't guess times or servings)
4. Extract any #hashtags as tags
5. Only use categories from the allowed values above
6. For "time" category, estimate based on prep+cook time

---
CONTENT TO PARSE:

Video/Post Title: {title}

Description/Caption:
{description}

Transcript/Additional Text:
{transcript}
---

Return ONLY the JSON object:`

// BuildPrompt fills the extraction template. The allowed values are rendered
// from tax so the prompt and category validation share one vocabulary.
func BuildPrompt(tax *taxonomy.Taxonomy, title, description, transcript string) string {
	var allowed strings.Builder
	for i, typ := range tax.Types() {
		if i > 0 {
			allowed.WriteString("\n")
		}
		allowed.WriteString("- " + typ + ": " + strings.Join(tax.Values(typ), ", "))
	}

	return strings.NewReplacer(
		"{allowed}", allowed.String(),
		"{title}", orDefault(title, "Unknown"),
		"{description}", orDefault(description, "(none)"),
		"{transcript}", orDefault(transcript, "(none)"),
	).Replace(extractionTemplate)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
