package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"recipe-extraction-api/internal/useragent"
)

// maxResultsPerSite caps how many entries are read from one result page.
const maxResultsPerSite = 10

// Site describes how to query one recipe site and read its result page.
// SearchURL contains a single %s for the escaped query.
type Site struct {
	Name           string
	SearchURL      string
	ResultSelector string
	TitleSelector  string
	BaseURL        string
}

// DefaultSites are the recipe sites searched by title.
var DefaultSites = []Site{
	{
		Name:           "AllRecipes",
		SearchURL:      "https://www.allrecipes.com/search?q=%s",
		ResultSelector: "a.mntl-card-list-card",
		TitleSelector:  "span.card__title-text",
	},
	{
		Name:           "Food Network",
		SearchURL:      "https://www.foodnetwork.com/search/%s-",
		ResultSelector: "div.o-RecipeResult a.o-RecipeResult__a-ResultLink",
		TitleSelector:  "span.o-RecipeResult__a-ResultTitle",
		BaseURL:        "https://www.foodnetwork.com",
	},
	{
		Name:           "Tasty",
		SearchURL:      "https://tasty.co/search?q=%s",
		ResultSelector: "a.feed-item",
		TitleSelector:  "div.feed-item__title",
		BaseURL:        "https://tasty.co",
	},
	{
		Name:           "Delish",
		SearchURL:      "https://www.delish.com/search/?q=%s",
		ResultSelector: "a.result-link",
		TitleSelector:  "span.result-title",
	},
	{
		Name:           "Food.com",
		SearchURL:      "https://www.food.com/search/%s",
		ResultSelector: "article.recipe-card a",
		TitleSelector:  "h2",
		BaseURL:        "https://www.food.com",
	},
	{
		Name:           "Epicurious",
		SearchURL:      "https://www.epicurious.com/search?q=%s",
		ResultSelector: "a.view-complete-item",
		TitleSelector:  "h4",
		BaseURL:        "https://www.epicurious.com",
	},
}

// TargetName implements Target.
func (s Site) TargetName() string { return s.Name }

// Fetch implements Target by scraping the site's HTML result page.
func (s Site) Fetch(ctx context.Context, client *http.Client, query string) ([]Result, error) {
	searchURL := fmt.Sprintf(s.SearchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", s.Name, err)
	}
	req.Header.Set("User-Agent", useragent.Bot)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", s.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s search failed with status %d", s.Name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s results: %w", s.Name, err)
	}
	return s.parseResults(doc), nil
}

func (s Site) parseResults(doc *goquery.Document) []Result {
	var results []Result
	doc.Find(s.ResultSelector).EachWithBreak(func(i int, el *goquery.Selection) bool {
		if i >= maxResultsPerSite {
			return false
		}

		link := el
		if goquery.NodeName(el) != "a" {
			link = el.Find("a").First()
		}
		href, _ := link.Attr("href")
		href = s.absolute(strings.TrimSpace(href))
		if href == "" {
			return true
		}

		title := collapse(el.Find(s.TitleSelector).First().Text())
		if title == "" {
			title = collapse(link.Text())
		}
		if title == "" {
			return true
		}

		results = append(results, Result{URL: href, Title: title, SiteName: s.Name})
		return true
	})
	return results
}

// absolute resolves a root-relative href against BaseURL; relative links on
// a site without a base are dropped.
func (s Site) absolute(href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		if s.BaseURL == "" {
			return ""
		}
		return strings.TrimSuffix(s.BaseURL, "/") + href
	}
	return href
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
