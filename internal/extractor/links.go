package extractor

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/urlnorm"
	"recipe-extraction-api/internal/useragent"
)

const urlCapture = `(https?://[^\s<>"')\]]+[^\s<>"')\].,;:!?])`

// Each phrase is matched on its own so overlapping phrasings still find the URL.
var recipeLinkPatterns = func() []*regexp.Regexp {
	phrases := []string{
		`recipe\s+here`,
		`full\s+recipe`,
		`get\s+the\s+recipe(?:\s+here)?`,
		`recipe\s+link`,
		`find\s+the\s+recipe\s+(?:at|here)`,
		`written\s+recipe`,
		`printable\s+recipe`,
		`recipe\s+(?:is\s+)?(?:available\s+)?(?:at|on)`,
	}
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`(?i)`+p+`[\s:!→➡👉\-–>]*`+urlCapture))
	}
	return out
}()

var linkInBioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:recipe|link)s?\s+(?:is\s+|are\s+)?in\s+(?:my\s+|the\s+)?bio\b`),
	regexp.MustCompile(`(?i)\bcheck\s+(?:out\s+)?(?:my\s+|the\s+)?bio\b`),
	regexp.MustCompile(`(?i)\b(?:recipe|link)s?\s+(?:is\s+|are\s+)?in\s+(?:my\s+|the\s+)?profile\b`),
	regexp.MustCompile(`(?i)\blink\s+on\s+(?:my\s+)?(?:bio|profile)\b`),
}

// ExtractRecipeLinksFromPatterns returns URLs that directly follow a recipe
// announcement such as "Full recipe:" or "Get the recipe →", deduplicated in
// first-seen order.
func ExtractRecipeLinksFromPatterns(text string) []string {
	if text == "" {
		return []string{}
	}
	seen := make(map[string]struct{})
	urls := []string{}
	for _, re := range recipeLinkPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			u := strings.TrimRight(m[1], `.,;:!?)'"`)
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// HasLinkInBio reports whether text points readers at a profile bio instead
// of including the recipe link.
func HasLinkInBio(text string) bool {
	for _, re := range linkInBioPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// LinkExpander resolves shortened links to their destination.
type LinkExpander interface {
	Expand(ctx context.Context, rawURL string) string
}

var shortenerHosts = map[string]struct{}{
	"bit.ly":      {},
	"tinyurl.com": {},
	"goo.gl":      {},
	"ow.ly":       {},
	"t.co":        {},
	"buff.ly":     {},
	"rebrand.ly":  {},
	"is.gd":       {},
	"amzn.to":     {},
	"tiny.cc":     {},
	"shorturl.at": {},
	"linktr.ee":   {},
}

// HTTPLinkExpander follows redirects for known shortener hosts. Anything else,
// and any expansion failure, passes the URL through unchanged.
type HTTPLinkExpander struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPLinkExpander creates an expander that uses client for requests.
func NewHTTPLinkExpander(client *http.Client, timeout time.Duration) *HTTPLinkExpander {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLinkExpander{Client: client, Timeout: timeout}
}

func isShortener(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := shortenerHosts[strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")]
	return ok
}

// Expand returns the final URL after redirects, normalized.
func (e *HTTPLinkExpander) Expand(ctx context.Context, rawURL string) string {
	if !isShortener(rawURL) {
		return rawURL
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", useragent.Bot)

	resp, err := e.Client.Do(req)
	if err != nil {
		logger.LogError("LinkExpander: Failed to expand %s: %v", rawURL, err)
		return rawURL
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	final := resp.Request.URL.String()
	if final != rawURL {
		log.Printf("LinkExpander: Expanded %s -> %s", rawURL, final)
	}
	return urlnorm.Normalize(final)
}

// expandAndFilter expands each URL and keeps the likely recipe pages,
// deduplicated in order.
func expandAndFilter(ctx context.Context, expander LinkExpander, urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if expander != nil {
			u = expander.Expand(ctx, u)
		}
		if _, ok := seen[u]; ok || !IsLikelyRecipeURL(u) {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
