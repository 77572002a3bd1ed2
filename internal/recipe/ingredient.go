package recipe

import (
	"regexp"
	"strings"
)

var (
	quantityPattern = regexp.MustCompile(`^[\d½¼¾⅓⅔⅛/\-\s]+`)
	unitPattern     = func() *regexp.Regexp {
		re := regexp.MustCompile(`(?i)^(cups?|tablespoons?|tbsp|teaspoons?|tsp|pounds?|lbs?|ounces?|oz|grams?|g|kilograms?|kg|ml|liters?|l|pieces?|slices?|cloves?|heads?|bunch(?:es)?|cans?|packages?|pinch(?:es)?|dash(?:es)?|large|medium|small)\s+`)
		re.Longest()
		return re
	}()
	preparationPattern = regexp.MustCompile(`,\s*(.+)$|\(([^)]+)\)$`)
)

// ParseIngredient splits a free-text ingredient line into quantity, unit,
// name and preparation. RawText always holds line unmodified.
func ParseIngredient(line string) Ingredient {
	ing := Ingredient{RawText: line}
	rest := strings.TrimSpace(line)

	if q := quantityPattern.FindString(rest); q != "" {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			ing.Quantity = trimmed
		}
		rest = strings.TrimSpace(rest[len(q):])
	}

	if m := unitPattern.FindStringSubmatch(rest); m != nil {
		ing.Unit = strings.ToLower(m[1])
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	if loc := preparationPattern.FindStringSubmatchIndex(rest); loc != nil {
		switch {
		case loc[2] >= 0:
			ing.Preparation = strings.TrimSpace(rest[loc[2]:loc[3]])
		case loc[4] >= 0:
			ing.Preparation = strings.TrimSpace(rest[loc[4]:loc[5]])
		}
		rest = strings.TrimSpace(rest[:loc[0]])
	}

	ing.Name = rest
	if ing.Name == "" {
		ing.Name = strings.TrimSpace(line)
	}
	if ing.Name == "" {
		ing.Name = line
	}
	return ing
}

// ParseIngredients parses each non-blank line.
func ParseIngredients(lines []string) []Ingredient {
	out := make([]Ingredient, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, ParseIngredient(l))
	}
	return out
}
