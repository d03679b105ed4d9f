package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPriceNotFound   = errors.New("price not found")
	ErrBlocked         = errors.New("blocked by anti-bot page")
)

// Strategy reads one value from a document: the text of the first element
// matching Selector, or its Attr attribute when Attr is set.
type Strategy struct {
	Selector string
	Attr     string
}

func Text(selector string) Strategy {
	return Strategy{Selector: selector}
}

func Attr(selector, attr string) Strategy {
	return Strategy{Selector: selector, Attr: attr}
}

// Extract returns the first non-empty value among the matched elements.
func (s Strategy) Extract(doc *goquery.Document) string {
	var value string
	doc.Find(s.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if s.Attr != "" {
			v, _ := sel.Attr(s.Attr)
			value = normalizeSpace(v)
		} else {
			value = normalizeSpace(sel.Text())
		}
		return value == ""
	})
	return value
}

type Parser struct {
	tables map[marketplace.ID]Selectors
}

func New() *Parser {
	return &Parser{tables: defaultSelectors()}
}

// Parse extracts a product from a fetched page. Website and PriceFormatted
// are left to the caller.
func (p *Parser) Parse(html string, id marketplace.ID) (*models.ScrapedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if IsBlocked(doc) {
		return nil, ErrBlocked
	}

	table := p.tables[id]
	ld := firstStructuredProduct(doc)

	title := firstValue(doc, table.Title, nil)
	if title == "" {
		title = firstValue(doc, metaTitle, nil)
	}
	if title == "" && ld != nil {
		title = ld.Name
	}
	if title == "" {
		return nil, ErrProductNotFound
	}

	price, ok := p.extractPrice(doc, table, ld)
	if !ok {
		return nil, ErrPriceNotFound
	}

	product := &models.ScrapedProduct{
		Title:    title,
		Price:    price,
		Category: firstValue(doc, table.Category, nil),
		Seller:   firstValue(doc, table.Seller, nil),
		ImageURL: firstValue(doc, table.Image, nil),
	}

	if product.ImageURL == "" {
		product.ImageURL = firstValue(doc, metaImage, nil)
	}
	if ld != nil {
		if product.Category == "" {
			product.Category = ld.Category
		}
		if product.Seller == "" {
			product.Seller = ld.Seller
		}
		if product.ImageURL == "" {
			product.ImageURL = ld.Image
		}
	}
	if product.Category == "" {
		product.Category = table.DefaultCategory
	}
	if product.Seller == "" {
		product.Seller = table.DefaultSeller
	}

	if kg, ok := ExtractWeight(doc); ok {
		product.Weight = FormatWeight(kg)
	} else {
		product.Weight = FormatWeight(EstimateWeight(product.Category, product.Title))
	}

	return product, nil
}

func (p *Parser) extractPrice(doc *goquery.Document, table Selectors, ld *structuredProduct) (float64, bool) {
	var price float64
	accept := func(v string) bool {
		amount, ok := ParsePrice(v)
		if ok {
			price = amount
		}
		return ok
	}

	if firstValue(doc, table.Price, accept) != "" {
		return price, true
	}
	if firstValue(doc, metaPrice, accept) != "" {
		return price, true
	}
	if ld != nil && accept(ld.Price) {
		return price, true
	}
	if amount, ok := scriptPrice(doc); ok {
		return amount, true
	}
	return 0, false
}

// firstValue walks the strategies in order and returns the first value that is
// non-empty and, when accept is set, accepted.
func firstValue(doc *goquery.Document, strategies []Strategy, accept func(string) bool) string {
	for _, s := range strategies {
		v := s.Extract(doc)
		if v == "" {
			continue
		}
		if accept == nil || accept(v) {
			return v
		}
	}
	return ""
}

var blockedTitles = []string{"robot check", "captcha", "access denied"}

var blockedMarkers = []string{
	"enter the characters you see below",
	"type the characters you see in this image",
	"sorry, we just need to make sure you're not a robot",
}

// IsBlocked reports whether the page is an anti-bot interstitial instead of a product page.
func IsBlocked(doc *goquery.Document) bool {
	if doc.Find(`form[action*="validateCaptcha"]`).Length() > 0 {
		return true
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	for _, marker := range blockedTitles {
		if strings.Contains(title, marker) {
			return true
		}
	}

	body := strings.ToLower(doc.Find("body").Text())
	for _, marker := range blockedMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
