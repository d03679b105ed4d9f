package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/landed-cost/internal/currency"
	"github.com/maltedev/landed-cost/internal/database"
	"github.com/maltedev/landed-cost/internal/landed-cost/estimator"
	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/metrics"
	"github.com/maltedev/landed-cost/internal/models"
	"github.com/maltedev/landed-cost/internal/parser"
	"github.com/maltedev/landed-cost/internal/scraper"
	"github.com/maltedev/landed-cost/internal/storage"
)

type stubScraper struct {
	product *models.ScrapedProduct
	err     error
	block   bool
}

func (s *stubScraper) Scrape(ctx context.Context, _ string, _ marketplace.ID) (*models.ScrapedProduct, error) {
	if s.block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", scraper.ErrTimeout, ctx.Err())
	}
	if s.err != nil {
		return nil, s.err
	}
	p := *s.product
	return &p, nil
}

type stubRates struct {
	quote currency.Quote
}

func (s stubRates) Rate(context.Context) currency.Quote { return s.quote }

type stubHistory struct {
	lookups  []database.Lookup
	err      error
	gotLimit int
}

func (s *stubHistory) Recent(_ context.Context, limit int) ([]database.Lookup, error) {
	s.gotLimit = limit
	return s.lookups, s.err
}

var rateTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func liveRates() stubRates {
	return stubRates{quote: currency.Quote{Rate: 1.6, FetchedAt: rateTime, Origin: currency.OriginLive}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, sc *stubScraper, rates stubRates, history HistoryReader, timeout time.Duration) *httptest.Server {
	t.Helper()

	m := metrics.New()
	est := estimator.NewService(sc, rates, storage.NewMemoryCache(time.Hour),
		estimator.Options{ScrapeTimeout: timeout}, m, discardLogger())
	h := NewHandlers(est, rates, history, discardLogger())

	srv := httptest.NewServer(NewRouter(h, m, RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func postScrape(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func pumaShoe() *models.ScrapedProduct {
	return &models.ScrapedProduct{
		Title:          "Puma Men's Running Shoe",
		Price:          3499,
		PriceFormatted: "₹ 3,499",
		Category:       "Shoes",
		Weight:         "0.75 kg",
		Seller:         "Puma",
		Website:        "Amazon India",
	}
}

func TestScrapeSuccess(t *testing.T) {
	srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), nil, time.Second)

	for _, path := range []string{"/scrape", "/api/scrape"} {
		t.Run(path, func(t *testing.T) {
			resp, data := postScrape(t, srv, path, `{"url":"https://www.amazon.in/dp/B0CHX1W1XY"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var details models.ProductDetails
			require.NoError(t, json.Unmarshal(data, &details))
			assert.Equal(t, "Puma Men's Running Shoe", details.Product.Title)
			assert.Equal(t, "₹ 3,499", details.Product.OriginalPrice)
			assert.Equal(t, 1.6, details.CostBreakdown.ExchangeRate)
			assert.Equal(t, "NPR 5,598.4", details.CostBreakdown.ProductPriceNPR)
			assert.Equal(t, "NPR 1,679.52", details.CostBreakdown.CustomsDuty)
			assert.Equal(t, "NPR 1,500", details.CostBreakdown.ShippingCost)
			assert.Equal(t, "NPR 8,777.92", details.CostBreakdown.TotalCostNPR)
		})
	}
}

func TestScrapeErrors(t *testing.T) {
	tests := []struct {
		name     string
		scraper  *stubScraper
		body     string
		status   int
		category string
		message  string
	}{
		{
			name:     "unsupported website",
			scraper:  &stubScraper{product: pumaShoe()},
			body:     `{"url":"https://www.ebay.com/itm/123"}`,
			status:   http.StatusBadRequest,
			category: "unsupported_website",
			message:  "Unsupported website. We currently support Amazon India, Flipkart, Myntra, AJIO and Nykaa.",
		},
		{
			name:     "invalid url",
			scraper:  &stubScraper{product: pumaShoe()},
			body:     `{"url":"not a url"}`,
			status:   http.StatusBadRequest,
			category: "invalid_url",
		},
		{
			name:     "missing url",
			scraper:  &stubScraper{product: pumaShoe()},
			body:     `{}`,
			status:   http.StatusBadRequest,
			category: "invalid_url",
		},
		{
			name:     "malformed body",
			scraper:  &stubScraper{product: pumaShoe()},
			body:     `{"url":`,
			status:   http.StatusBadRequest,
			category: "invalid_url",
		},
		{
			name:     "timeout",
			scraper:  &stubScraper{block: true},
			body:     `{"url":"https://www.flipkart.com/item/p/itm6ac6485515ae4"}`,
			status:   http.StatusGatewayTimeout,
			category: "timeout",
		},
		{
			name:     "product not found",
			scraper:  &stubScraper{err: scraper.ErrProductNotFound},
			body:     `{"url":"https://www.myntra.com/shirts/roadster/1234567"}`,
			status:   http.StatusNotFound,
			category: "product_not_found",
		},
		{
			name:     "upstream failure",
			scraper:  &stubScraper{err: fmt.Errorf("%w: status 500", scraper.ErrUpstream)},
			body:     `{"url":"https://www.ajio.com/p/469581234"}`,
			status:   http.StatusBadGateway,
			category: "upstream_error",
		},
		{
			name:     "unclassified failure",
			scraper:  &stubScraper{err: errors.New("boom")},
			body:     `{"url":"https://www.nykaa.com/lipstick/p/123"}`,
			status:   http.StatusInternalServerError,
			category: "processing_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.scraper, liveRates(), nil, 20*time.Millisecond)

			resp, data := postScrape(t, srv, "/api/scrape", tt.body)
			require.Equal(t, tt.status, resp.StatusCode, string(data))

			e := decodeError(t, data)
			assert.Equal(t, tt.category, e.Error)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.NotEmpty(t, e.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, e.Message)
			}
		})
	}
}

func TestExchangeRate(t *testing.T) {
	tests := []struct {
		name    string
		quote   currency.Quote
		source  string
		hasNote bool
	}{
		{"live", currency.Quote{Rate: 1.6015, FetchedAt: rateTime, Origin: currency.OriginLive}, "API", false},
		{"cached", currency.Quote{Rate: 1.6015, FetchedAt: rateTime, Origin: currency.OriginCache}, "API", false},
		{"stale", currency.Quote{Rate: 1.59, FetchedAt: rateTime, Origin: currency.OriginStale}, "Fallback", true},
		{"default", currency.Quote{Rate: 1.6, FetchedAt: rateTime, Origin: currency.OriginDefault}, "Fallback", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubScraper{product: pumaShoe()}, stubRates{quote: tt.quote}, nil, time.Second)

			resp, err := http.Get(srv.URL + "/api/exchange-rate")
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body ExchangeRateResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.True(t, body.Success)
			assert.Equal(t, tt.quote.Rate, body.Rate)
			assert.Equal(t, tt.source, body.Source)
			assert.Equal(t, "2024-05-01T10:00:00Z", body.Timestamp)
			assert.Equal(t, tt.hasNote, body.Note != "")
			assert.Equal(t, tt.hasNote, body.Message != "")
		})
	}
}

func TestHistory(t *testing.T) {
	lookups := []database.Lookup{{URL: "https://www.amazon.in/dp/B0CHX1W1XY", Marketplace: "amazon", TotalNPR: 8777.92}}

	t.Run("not mounted without history", func(t *testing.T) {
		srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), nil, time.Second)
		resp, err := http.Get(srv.URL + "/history")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("default limit", func(t *testing.T) {
		history := &stubHistory{lookups: lookups}
		srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), history, time.Second)

		resp, err := http.Get(srv.URL + "/api/history")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body HistoryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Lookups, 1)
		assert.Equal(t, "amazon", body.Lookups[0].Marketplace)
		assert.Equal(t, database.DefaultHistoryLimit, history.gotLimit)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		history := &stubHistory{}
		srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), history, time.Second)

		resp, err := http.Get(srv.URL + "/history?limit=500")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.JSONEq(t, `[]`, string(body["lookups"]))
		assert.Equal(t, database.MaxHistoryLimit, history.gotLimit)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), &stubHistory{}, time.Second)
		resp, err := http.Get(srv.URL + "/history?limit=ten")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store failure", func(t *testing.T) {
		srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), &stubHistory{err: errors.New("down")}, time.Second)
		resp, err := http.Get(srv.URL + "/history")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), nil, time.Second)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	data, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "landed_cost_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubScraper{product: pumaShoe()}, liveRates(), nil, time.Second)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/scrape", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: connection refused", scraper.ErrUpstream)
}

func TestScrapeFallsBackToHeuristicProduct(t *testing.T) {
	tests := []struct {
		name   string
		policy scraper.Policy
		status int
	}{
		{"fallback policy", scraper.PolicyFallback, http.StatusOK},
		{"strict policy", scraper.PolicyStrict, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scraper.NewService(failingFetcher{}, parser.New(), nil, tt.policy, discardLogger())
			rates := liveRates()
			est := estimator.NewService(sc, rates, storage.NewMemoryCache(time.Hour), estimator.Options{}, nil, discardLogger())
			srv := httptest.NewServer(NewRouter(NewHandlers(est, rates, nil, discardLogger()), nil, RouterOptions{}))
			defer srv.Close()

			resp, data := postScrape(t, srv, "/api/scrape", `{"url":"https://www.amazon.in/Puma-Running-Shoes/dp/B0CHX1W1XY"}`)
			require.Equal(t, tt.status, resp.StatusCode, string(data))
			if tt.status != http.StatusOK {
				assert.Equal(t, "upstream_error", decodeError(t, data).Error)
				return
			}

			var details models.ProductDetails
			require.NoError(t, json.Unmarshal(data, &details))
			assert.True(t, details.Product.Estimated)
			assert.Equal(t, "Amazon India", details.Product.Website)
			assert.NotEmpty(t, details.Product.Title)
			assert.NotEmpty(t, details.CostBreakdown.TotalCostNPR)
		})
	}
}
