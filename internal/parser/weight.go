package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var weightDetailSelectors = []string{
	"#detailBullets_feature_div",
	"#productDetails_techSpec_section_1",
	"#productDetails_detailBullets_sections1",
	"#feature-bullets",
	"._1UhVsV",
	".pdp-sizeFitDesc",
}

var (
	labelledWeightPattern = regexp.MustCompile(`(?i)weight[^0-9]{0,20}([0-9]+(?:[.,][0-9]+)?)\s*(kilograms?|kg|grams?|g)\b`)
	weightPattern         = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*(kilograms?|kg|grams?|g)\b`)
)

// ExtractWeight looks for a labelled weight in the product detail sections.
func ExtractWeight(doc *goquery.Document) (float64, bool) {
	var details strings.Builder
	for _, selector := range weightDetailSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			details.WriteString(s.Text())
			details.WriteString(" ")
		})
	}

	m := labelledWeightPattern.FindStringSubmatch(details.String())
	if m == nil {
		return 0, false
	}
	return toKilograms(m[1], m[2])
}

// ParseWeight reads a rendered weight such as "0.75 kg" or "500 g" in kilograms.
func ParseWeight(s string) (float64, bool) {
	m := weightPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return toKilograms(m[1], m[2])
}

func FormatWeight(kg float64) string {
	return fmt.Sprintf("%.2f kg", kg)
}

func toKilograms(value, unit string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(unit), "g") {
		v /= 1000
	}
	return v, true
}

type weightClass struct {
	keywords []string
	kg       float64
}

// Checked in order; a word matches a keyword when it starts with it.
var weightClasses = []weightClass{
	{keywords: []string{"shoe", "sneaker", "sandal", "slipper", "boot", "footwear", "floater", "heel", "loafer"}, kg: 0.75},
	{keywords: []string{"phone", "smartphone", "iphone", "mobile", "headphone", "earphone", "earbud", "headset"}, kg: 0.8},
	{keywords: []string{"laptop", "notebook", "tablet", "ipad", "electronic", "camera", "computer", "monitor"}, kg: 1.0},
	{keywords: []string{"shirt", "tshirt", "dress", "top", "kurta", "kurti", "blouse"}, kg: 0.25},
	{keywords: []string{"jean", "pant", "trouser", "jogger", "chino"}, kg: 0.45},
	{keywords: []string{"clothing", "fashion", "apparel", "jacket", "hoodie", "sweater", "saree", "wear"}, kg: 0.35},
}

const defaultWeightKg = 0.5

// EstimateWeight guesses a shipping weight in kilograms from category and title keywords.
func EstimateWeight(category, title string) float64 {
	words := strings.FieldsFunc(strings.ToLower(category+" "+title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, class := range weightClasses {
		for _, word := range words {
			for _, keyword := range class.keywords {
				if strings.HasPrefix(word, keyword) {
					return class.kg
				}
			}
		}
	}
	return defaultWeightKg
}
