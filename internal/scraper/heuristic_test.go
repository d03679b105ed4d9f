package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maltedev/landed-cost/internal/marketplace"
)

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		id       marketplace.ID
		title    string
		price    float64
		category string
		seller   string
		weight   string
		website  string
	}{
		{
			name:     "Amazon shoe slug",
			url:      "https://www.amazon.in/Puma-Velocity-Running-Shoe/dp/B0CHX1W1XY",
			id:       marketplace.Amazon,
			title:    "Puma Velocity Running Shoe",
			price:    3499,
			category: "Footwear",
			seller:   "Puma",
			weight:   "0.75 kg",
			website:  "Amazon India",
		},
		{
			name:     "Flipkart phone",
			url:      "https://www.flipkart.com/apple-iphone-15-black-128-gb/p/itm6ac6485515ae4",
			id:       marketplace.Flipkart,
			title:    "Apple Iphone 15 Black 128 Gb",
			price:    24999,
			category: "Mobiles",
			seller:   "Apple",
			weight:   "0.80 kg",
			website:  "Flipkart",
		},
		{
			name:     "Myntra shirt",
			url:      "https://www.myntra.com/tshirts/roadster/roadster-men-navy-blue-t-shirt/1234567/buy",
			id:       marketplace.Myntra,
			title:    "Roadster Men Navy Blue T Shirt",
			price:    999,
			category: "Clothing",
			seller:   "Roadster",
			weight:   "0.25 kg",
			website:  "Myntra",
		},
		{
			name:     "Jeans slug",
			url:      "https://www.myntra.com/jeans/levis/levis-men-slim-fit-jeans/7654321/buy",
			id:       marketplace.Myntra,
			title:    "Levis Men Slim Fit Jeans",
			price:    1799,
			category: "Clothing",
			seller:   "Levis",
			weight:   "0.45 kg",
			website:  "Myntra",
		},
		{
			name:     "Trousers slug",
			url:      "https://www.amazon.in/Allen-Solly-Formal-Trousers/dp/B0C1234567",
			id:       marketplace.Amazon,
			title:    "Allen Solly Formal Trousers",
			price:    1799,
			category: "Clothing",
			seller:   "Amazon India",
			weight:   "0.45 kg",
			website:  "Amazon India",
		},
		{
			name:     "Keyword inside a longer word is ignored",
			url:      "https://www.amazon.in/Elephant-Soft-Toy/dp/B0C1234567",
			id:       marketplace.Amazon,
			title:    "Elephant Soft Toy",
			price:    1999,
			category: "General",
			seller:   "Amazon India",
			weight:   "0.50 kg",
			website:  "Amazon India",
		},
		{
			name:     "Bare product URL",
			url:      "https://www.amazon.in/dp/B0XXXXXXX",
			id:       marketplace.Amazon,
			title:    "Amazon India Product",
			price:    1999,
			category: "General",
			seller:   "Amazon India",
			weight:   "0.50 kg",
			website:  "Amazon India",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Heuristic(tt.url, tt.id)

			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.price, p.Price)
			assert.Equal(t, tt.category, p.Category)
			assert.Equal(t, tt.seller, p.Seller)
			assert.Equal(t, tt.weight, p.Weight)
			assert.Equal(t, tt.website, p.Website)
			assert.Equal(t, PlaceholderImage, p.ImageURL)
			assert.True(t, p.Estimated)
			assert.Empty(t, p.Validate())
		})
	}
}

func TestHeuristicIsDeterministic(t *testing.T) {
	url := "https://www.nykaa.com/lakme-9to5-lipstick/p/123456"
	assert.Equal(t, Heuristic(url, marketplace.Nykaa), Heuristic(url, marketplace.Nykaa))
}
