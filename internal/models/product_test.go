package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheEntryIsExpired(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entry := &CacheEntry{URL: "https://www.amazon.in/dp/B0TEST0001", CreatedAt: created}

	assert.False(t, entry.IsExpired(created.Add(59*time.Minute), time.Hour))
	assert.False(t, entry.IsExpired(created.Add(time.Hour), time.Hour), "boundary is still fresh")
	assert.True(t, entry.IsExpired(created.Add(time.Hour+time.Second), time.Hour))
}

func TestScrapedProductValidate(t *testing.T) {
	valid := &ScrapedProduct{Title: "Shoe", Price: 1999, Website: "Myntra"}
	assert.Empty(t, valid.Validate())

	invalid := &ScrapedProduct{Price: 0}
	assert.Len(t, invalid.Validate(), 3)
}

func TestSummary(t *testing.T) {
	p := &ScrapedProduct{
		Title:          "Puma Running Shoes",
		Price:          3499,
		PriceFormatted: "₹ 3,499",
		Category:       "Footwear",
		Weight:         "0.75 kg",
		Seller:         "Puma",
		Website:        "Amazon India",
		Estimated:      true,
	}

	s := p.Summary()
	assert.Equal(t, "₹ 3,499", s.OriginalPrice)
	assert.Equal(t, "Amazon India", s.Website)
	assert.True(t, s.Estimated)
}
