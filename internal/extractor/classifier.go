package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

// knownRecipeDomains are sites that reliably publish schema.org/Recipe markup.
var knownRecipeDomains = []string{
	"cooking.nytimes.com",
	"nytimes.com",
	"seriouseats.com",
	"bonappetit.com",
	"epicurious.com",
	"food52.com",
	"allrecipes.com",
	"foodnetwork.com",
	"delish.com",
	"thekitchn.com",
	"simplyrecipes.com",
	"budgetbytes.com",
	"smittenkitchen.com",
	"minimalistbaker.com",
	"halfbakedharvest.com",
	"pinchofyum.com",
	"cookieandkate.com",
	"loveandlemons.com",
	"skinnytaste.com",
	"recipetineats.com",
	"sallysbakingaddiction.com",
	"hostthetoast.com",
	"justonecookbook.com",
	"davidlebovitz.com",
	"kingarthurbaking.com",
	"jocooks.com",
	"gimmesomeoven.com",
	"cafedelites.com",
	"damndelicious.net",
	"therecipecritic.com",
	"tasteofhome.com",
	"myrecipes.com",
	"eatingwell.com",
	"marthastewart.com",
	"tasty.co",
	// International
	"bbcgoodfood.com",
	"bbc.co.uk",
	"ricardocuisine.com",
	"marmiton.org",
	"chefkoch.de",
	// Blogs
	"themediterraneandish.com",
	"feelgoodfoodie.net",
	"wellplated.com",
}

var recipePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/recipes?/`),
	regexp.MustCompile(`/recettes?/`),
	regexp.MustCompile(`/rezepte?/`),
}

// IsLikelyRecipeURL reports whether rawURL points at a known recipe site or
// has a recipe-shaped path. Unparseable input is simply not a recipe URL.
func IsLikelyRecipeURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, known := range knownRecipeDomains {
		if strings.Contains(host, known) {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	for _, re := range recipePathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// FilterRecipeURLs keeps the URLs that look like recipe pages, in order.
func FilterRecipeURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if IsLikelyRecipeURL(u) {
			out = append(out, u)
		}
	}
	return out
}

// siteNameFromURL returns the host with any www. prefix removed.
func siteNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.Replace(strings.ToLower(u.Host), "www.", "", 1)
}
