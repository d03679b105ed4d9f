package parser

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

type structuredProduct struct {
	Name     string
	Price    string
	Category string
	Image    string
	Seller   string
}

// firstStructuredProduct returns the first schema.org Product found in the
// page's JSON-LD blocks. Blocks that fail to decode are skipped.
func firstStructuredProduct(doc *goquery.Document) *structuredProduct {
	var found *structuredProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		found = findProduct(v)
		return found == nil
	})
	return found
}

func findProduct(v any) *structuredProduct {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if p := findProduct(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return toStructuredProduct(node)
		}
		if graph, ok := node["@graph"]; ok {
			return findProduct(graph)
		}
	}
	return nil
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Product"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func toStructuredProduct(node map[string]any) *structuredProduct {
	p := &structuredProduct{
		Name:     normalizeSpace(stringValue(node["name"])),
		Category: normalizeSpace(stringValue(node["category"])),
		Image:    imageValue(node["image"]),
	}

	offer := firstObject(node["offers"])
	if offer != nil {
		p.Price = stringValue(offer["price"])
		if p.Price == "" {
			p.Price = stringValue(offer["lowPrice"])
		}
		if seller := firstObject(offer["seller"]); seller != nil {
			p.Seller = normalizeSpace(stringValue(seller["name"]))
		}
	}
	return p
}

func firstObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func imageValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := imageValue(item); s != "" {
				return s
			}
		}
	case map[string]any:
		return stringValue(t["url"])
	}
	return ""
}

var scriptPricePattern = regexp.MustCompile(`"(?:price|sellingPrice|finalPrice|discountedPrice)"\s*:\s*"?([0-9][0-9,]*(?:\.[0-9]+)?)`)

// scriptPrice scans inline scripts for embedded price state.
func scriptPrice(doc *goquery.Document) (float64, bool) {
	var price float64
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, m := range scriptPricePattern.FindAllStringSubmatch(s.Text(), -1) {
			if amount, ok := ParsePrice(m[1]); ok {
				price = amount
				return false
			}
		}
		return true
	})
	return price, price > 0
}
