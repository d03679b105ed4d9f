package models

import (
	"time"
)

// ScrapedProduct is what the scraper extracts (or synthesises) for a product page.
type ScrapedProduct struct {
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	PriceFormatted string  `json:"priceFormatted"`
	Category       string  `json:"category,omitempty"`
	Weight         string  `json:"weight,omitempty"`
	Seller         string  `json:"seller,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Website        string  `json:"website"`
	// Estimated is set when the product was generated from the URL instead of the page.
	Estimated bool `json:"estimated"`
}

// ExchangeRate is NPR per 1 INR.
type ExchangeRate struct {
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CostBreakdown is the display form of a landed cost calculation.
type CostBreakdown struct {
	ProductPriceINR string  `json:"productPriceINR"`
	ExchangeRate    float64 `json:"exchangeRate"`
	ProductPriceNPR string  `json:"productPriceNPR"`
	CustomsDuty     string  `json:"customsDuty"`
	ShippingCost    string  `json:"shippingCost"`
	TotalCostNPR    string  `json:"totalCostNPR"`
}

// ProductSummary is the product part of a /scrape response.
type ProductSummary struct {
	Title         string `json:"title"`
	OriginalPrice string `json:"originalPrice"`
	Category      string `json:"category,omitempty"`
	Weight        string `json:"weight,omitempty"`
	Seller        string `json:"seller,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Website       string `json:"website"`
	Estimated     bool   `json:"estimated"`
}

// ProductDetails is the full /scrape response and the value stored in the result cache.
type ProductDetails struct {
	Product       ProductSummary `json:"product"`
	CostBreakdown CostBreakdown  `json:"costBreakdown"`
}

// CacheEntry is a cached ProductDetails keyed by source URL.
type CacheEntry struct {
	URL       string         `json:"url"`
	Details   ProductDetails `json:"details"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Summary converts a scraped product into its response form.
func (p *ScrapedProduct) Summary() ProductSummary {
	return ProductSummary{
		Title:         p.Title,
		OriginalPrice: p.PriceFormatted,
		Category:      p.Category,
		Weight:        p.Weight,
		Seller:        p.Seller,
		ImageURL:      p.ImageURL,
		Website:       p.Website,
		Estimated:     p.Estimated,
	}
}

// IsExpired reports whether the entry is older than ttl at now.
func (e *CacheEntry) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}

func (p *ScrapedProduct) Validate() []string {
	var errors []string

	if p.Title == "" {
		errors = append(errors, "Title is required")
	}

	if p.Price <= 0 {
		errors = append(errors, "Price must be positive")
	}

	if p.Website == "" {
		errors = append(errors, "Website is required")
	}

	return errors
}
