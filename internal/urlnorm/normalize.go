// Package urlnorm cleans user-supplied and scraped URLs: it isolates URLs from
// share text, strips tracking parameters and canonicalizes platform hosts.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// Share text from mobile apps: "Check this out! https://... via @app"
	shareURLPattern   = regexp.MustCompile(`https?://[^\s<>"']+[^\s<>"'.,;:!?)\]]`)
	bareDomainPattern = regexp.MustCompile(`(?i)^[\w\-.]+\.[a-z]{2,}`)
	textURLPattern    = regexp.MustCompile(`https?://[^\s<>"')\]]+[^\s<>"')\].,;:!?]`)
	hashtagPattern    = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

const trailingPunctuation = `.,;:!?)'"`

var trackingParams = map[string]struct{}{
	"igsh":    {},
	"igshid":  {},
	"si":      {},
	"feature": {},
	"fbclid":  {},
	"gclid":   {},
	"ref":     {},
	"ref_src": {},
	"ref_url": {},
	"source":  {},
	"mc_cid":  {},
	"mc_eid":  {},
}

// IsTrackingParam reports whether a query key is on the tracking deny-list.
func IsTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

// Normalize isolates the URL in input, removes tracking parameters and the
// fragment, and rewrites YouTube/Instagram hosts to their canonical form.
// It never fails: input that cannot be parsed is returned unchanged.
func Normalize(input string) string {
	text := strings.TrimSpace(input)
	if text == "" {
		return input
	}

	candidate := text
	if m := shareURLPattern.FindString(text); m != "" {
		candidate = m
	} else if bareDomainPattern.MatchString(text) {
		candidate = "https://" + strings.Fields(text)[0]
	}

	u, err := url.Parse(strings.TrimRight(candidate, trailingPunctuation))
	if err != nil {
		return input
	}
	u.RawQuery = stripTracking(u.RawQuery)
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return canonicalize(u)
}

// stripTracking drops deny-listed keys and keeps every other pair verbatim,
// in its original position.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if IsTrackingParam(key) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func canonicalize(u *url.URL) string {
	switch strings.ToLower(u.Hostname()) {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			break
		}
		query := "v=" + id
		if u.RawQuery != "" {
			query += "&" + u.RawQuery
		}
		return "https://www.youtube.com/watch?" + query
	case "m.youtube.com":
		u.Host = "www.youtube.com"
	case "instagram.com":
		u.Host = "www.instagram.com"
	}
	return u.String()
}

// ExtractURLs returns every http(s) URL in text, trailing punctuation removed,
// deduplicated in first-seen order.
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, m := range textURLPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, trailingPunctuation)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// ExtractHashtags returns the distinct hashtags in text, "#" included.
func ExtractHashtags(text string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := "#" + m[1]
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
