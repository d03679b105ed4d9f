package scraper

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/maltedev/landed-cost/internal/calculator"
	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/models"
	"github.com/maltedev/landed-cost/internal/parser"
)

const PlaceholderImage = "https://placehold.co/600x600?text=Product+Image"

type productProfile struct {
	keywords []string
	category string
	noun     string
	price    float64
}

// Checked in order against the URL's words; a word matches a keyword when it starts with it.
var productProfiles = []productProfile{
	{keywords: []string{"shoe", "sneaker", "footwear", "sandal", "slipper"}, category: "Footwear", noun: "Running Shoes", price: 3499},
	{keywords: []string{"headphone", "earphone", "earbud", "headset"}, category: "Headphones", noun: "Wireless Headphones", price: 2999},
	{keywords: []string{"phone", "smartphone", "mobile", "iphone", "galaxy"}, category: "Mobiles", noun: "Smartphone", price: 24999},
	{keywords: []string{"laptop", "notebook", "macbook"}, category: "Laptops", noun: "Laptop", price: 54999},
	{keywords: []string{"watch", "smartwatch"}, category: "Watches", noun: "Watch", price: 2499},
	{keywords: []string{"jean", "trouser", "pant"}, category: "Clothing", noun: "Jeans", price: 1799},
	{keywords: []string{"shirt", "tshirt", "kurta", "dress"}, category: "Clothing", noun: "T-Shirt", price: 999},
}

var defaultProfile = productProfile{category: "General", noun: "Product", price: 1999}

var brands = []string{
	"puma", "nike", "adidas", "reebok", "skechers", "apple", "samsung", "oneplus",
	"xiaomi", "redmi", "realme", "sony", "boat", "levis", "roadster", "lenovo", "hp", "dell",
}

// Heuristic builds a plausible product from the URL alone. The same URL always
// yields the same product, marked Estimated.
func Heuristic(rawURL string, id marketplace.ID) *models.ScrapedProduct {
	words := urlWords(strings.ToLower(rawURL))

	profile := defaultProfile
	for _, p := range productProfiles {
		if hasWordPrefix(words, p.keywords) {
			profile = p
			break
		}
	}

	brand := ""
	for _, b := range brands {
		if hasWord(words, b) {
			brand = titleCase(b)
			break
		}
	}

	seller := brand
	if seller == "" {
		seller = id.DisplayName()
	}

	title := slugTitle(rawURL)
	if title == "" {
		title = seller + " " + profile.noun
	}

	return &models.ScrapedProduct{
		Title:          title,
		Price:          profile.price,
		PriceFormatted: calculator.FormatINR(profile.price),
		Category:       profile.category,
		Weight:         parser.FormatWeight(parser.EstimateWeight(profile.category, title)),
		Seller:         seller,
		ImageURL:       PlaceholderImage,
		Website:        id.DisplayName(),
		Estimated:      true,
	}
}

// slugTitle turns the most descriptive hyphenated path segment into a title,
// e.g. /Puma-Velocity-Running-Shoe/dp/B0... gives "Puma Velocity Running Shoe".
func slugTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	best := ""
	for _, segment := range strings.Split(u.Path, "/") {
		if strings.Count(segment, "-") < 1 || !hasLetter(segment) {
			continue
		}
		if len(segment) > len(best) {
			best = segment
		}
	}
	if best == "" {
		return ""
	}

	return titleCase(strings.Join(strings.FieldsFunc(best, func(r rune) bool {
		return r == '-' || r == '_'
	}), " "))
}

// Casers keep state, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func urlWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}

func hasWordPrefix(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if strings.HasPrefix(w, k) {
				return true
			}
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
