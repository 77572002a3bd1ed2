package search

import (
	"regexp"
	"strings"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but in on at to for of with by from is are was were be been
		being have has had do does did will would could should may might must shall can
		this that these those i you he she it we they my your his her its our their
		recipe recipes how make making easy best simple homemade quick`) {
		stopWords[w] = struct{}{}
	}
}

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacePattern      = regexp.MustCompile(`\s+`)
	pipeSuffixPattern = regexp.MustCompile(`\s*\|.*$`)
	hashtagPattern    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	shortsPattern     = regexp.MustCompile(`(?i)#?\bshorts?\b`)
	queryJunkPattern  = regexp.MustCompile(`[^\p{L}\p{N}_\s\-']`)
)

// normalizeText lowercases s, replaces punctuation with spaces and collapses whitespace.
func normalizeText(s string) string {
	s = nonWordPattern.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Keywords returns the meaningful words of a title: normalized, with generic
// and recipe-filler words removed.
func Keywords(title string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(normalizeText(title)) {
		if _, stop := stopWords[w]; !stop {
			words[w] = struct{}{}
		}
	}
	return words
}

// Similarity is the Jaccard index of the two titles' keyword sets. It is 0
// when either side has no keywords.
func Similarity(a, b string) float64 {
	ka, kb := Keywords(a), Keywords(b)
	if len(ka) == 0 || len(kb) == 0 {
		return 0
	}
	inter := 0
	for w := range ka {
		if _, ok := kb[w]; ok {
			inter++
		}
	}
	union := len(ka) + len(kb) - inter
	return float64(inter) / float64(union)
}

// BuildQuery cleans a video title into a search query and appends the author
// when it is longer than two characters.
func BuildQuery(title, author string) string {
	q := pipeSuffixPattern.ReplaceAllString(title, "")
	q = hashtagPattern.ReplaceAllString(q, "")
	q = shortsPattern.ReplaceAllString(q, "")
	q = queryJunkPattern.ReplaceAllString(q, " ")
	q = strings.TrimSpace(spacePattern.ReplaceAllString(q, " "))

	if author != "" {
		a := strings.TrimSpace(nonWordPattern.ReplaceAllString(author, ""))
		if len([]rune(a)) > 2 {
			q = q + " " + a
		}
	}
	return q
}
