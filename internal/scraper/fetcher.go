package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/maltedev/landed-cost/internal/browser"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	defaultAcceptLanguage = "en-IN,en-US;q=0.9,en;q=0.8"
	maxBodySize           = 20 * 1024 * 1024
)

// CollyFetcher issues a single GET per page through a colly collector.
type CollyFetcher struct {
	collector *colly.Collector
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &CollyFetcher{collector: c}
}

// Fetch binds the request to ctx, so a cancelled ctx aborts the transfer.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	c := f.collector.Clone()
	c.Context = ctx

	var (
		body   []byte
		status int
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", defaultAccept)
		r.Headers.Set("Accept-Language", defaultAcceptLanguage)
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	err := c.Visit(url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if status >= 300 || (err != nil && status >= 200) {
		return nil, StatusError(status)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return body, nil
}

// BrowserFetcher renders the page in headless Chromium.
type BrowserFetcher struct {
	browser *browser.Browser
}

func NewBrowserFetcher(b *browser.Browser) *BrowserFetcher {
	return &BrowserFetcher{browser: b}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	html, status, err := f.browser.FetchHTML(ctx, url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if status < 200 || status >= 300 {
		return nil, StatusError(status)
	}
	return []byte(html), nil
}

func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
