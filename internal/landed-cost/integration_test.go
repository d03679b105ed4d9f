package landedcost_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/landed-cost/internal/currency"
	"github.com/maltedev/landed-cost/internal/database"
	"github.com/maltedev/landed-cost/internal/landed-cost/api"
	"github.com/maltedev/landed-cost/internal/landed-cost/estimator"
	"github.com/maltedev/landed-cost/internal/metrics"
	"github.com/maltedev/landed-cost/internal/models"
	"github.com/maltedev/landed-cost/internal/parser"
	"github.com/maltedev/landed-cost/internal/ratelimit"
	"github.com/maltedev/landed-cost/internal/scraper"
	"github.com/maltedev/landed-cost/internal/storage"
)

func TestCompleteEstimateFlow(t *testing.T) {
	// Skip if not in integration test mode
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := metrics.New()

	// Setup database
	db, err := database.New(ctx, database.Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "landed_cost_test",
		MaxConns: 5,
		MinConns: 1,
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))
	history := database.NewLookupRepository(db)

	// Setup Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer redisClient.Close()
	require.NoError(t, redisClient.Ping(ctx).Err())

	// Setup services
	scraperService := scraper.NewService(
		scraper.NewCollyFetcher("", 15*time.Second),
		parser.New(),
		ratelimit.NewHostLimiter(time.Second, 2*time.Second),
		scraper.PolicyFallback,
		logger)
	rates := currency.NewProvider(currency.DefaultSources("", "", nil), currency.Options{}, m, logger)
	cache := storage.NewRedisCache(redisClient, time.Minute, logger)

	est := estimator.NewService(scraperService, rates, cache, estimator.Options{History: history}, m, logger)
	handlers := api.NewHandlers(est, rates, history, logger)
	srv := httptest.NewServer(api.NewRouter(handlers, m, api.RouterOptions{}))
	defer srv.Close()

	productURL := "https://www.amazon.in/dp/B0CHX1W1XY"
	defer redisClient.Del(ctx, storage.Key(productURL))

	// Estimate via the API
	resp, err := http.Post(srv.URL+"/api/scrape", "application/json",
		strings.NewReader(`{"url":"`+productURL+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var details models.ProductDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&details))
	assert.NotEmpty(t, details.Product.Title)
	assert.Equal(t, "Amazon India", details.Product.Website)
	assert.Equal(t, "NPR 1,500", details.CostBreakdown.ShippingCost)
	assert.Greater(t, details.CostBreakdown.ExchangeRate, 0.0)

	// Result is cached in Redis
	cached, ok := cache.Get(ctx, productURL)
	require.True(t, ok)
	assert.Equal(t, details, *cached)

	// Lookup is recorded
	recent, err := history.Recent(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, productURL, recent[0].URL)
	assert.Equal(t, "B0CHX1W1XY", recent[0].ProductID)
}
