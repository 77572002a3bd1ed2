// Package useragent provides the User-Agent strings used for outbound requests.
package useragent

import "math/rand/v2"

// Bot identifies the service to recipe sites and search pages.
const Bot = "Mozilla/5.0 (compatible; RecipeSaver/1.0; +https://github.com/recipe-saver)"

var desktop = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// RandomDesktop returns a desktop browser User-Agent, used where a site
// refuses non-browser clients (headless rendering).
func RandomDesktop() string {
	return desktop[rand.IntN(len(desktop))]
}
