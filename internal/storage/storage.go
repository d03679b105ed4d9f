package storage

import (
	"context"
	"sync"
	"time"

	"github.com/maltedev/landed-cost/internal/models"
)

const DefaultTTL = time.Hour

// ResultCache stores computed landed costs by source URL.
type ResultCache interface {
	Get(ctx context.Context, url string) (*models.ProductDetails, bool)
	Put(ctx context.Context, url string, details *models.ProductDetails) error
}

// MemoryCache is an in-process ResultCache. Expired entries are evicted when
// read and by Prune.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]*models.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*models.ProductDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[url]
	if !exists {
		return nil, false
	}

	if entry.IsExpired(c.now(), c.ttl) {
		delete(c.entries, url)
		return nil, false
	}

	details := entry.Details
	return &details, true
}

func (c *MemoryCache) Put(_ context.Context, url string, details *models.ProductDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &models.CacheEntry{
		URL:       url,
		Details:   *details,
		CreatedAt: c.now(),
	}
	return nil
}

// Prune removes every expired entry and returns how many were dropped.
func (c *MemoryCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for url, entry := range c.entries {
		if entry.IsExpired(now, c.ttl) {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper calls Prune every interval until ctx is done.
func (c *MemoryCache) StartSweeper(ctx context.Context, interval time.Duration, onPrune func(removed int)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Prune(); removed > 0 && onPrune != nil {
				onPrune(removed)
			}
		}
	}
}
