package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/landed-cost/internal/browser"
	"github.com/maltedev/landed-cost/internal/calculator"
	"github.com/maltedev/landed-cost/internal/currency"
	"github.com/maltedev/landed-cost/internal/database"
	"github.com/maltedev/landed-cost/internal/landed-cost/api"
	"github.com/maltedev/landed-cost/internal/landed-cost/config"
	"github.com/maltedev/landed-cost/internal/landed-cost/estimator"
	"github.com/maltedev/landed-cost/internal/metrics"
	"github.com/maltedev/landed-cost/internal/parser"
	"github.com/maltedev/landed-cost/internal/ratelimit"
	"github.com/maltedev/landed-cost/internal/scraper"
	"github.com/maltedev/landed-cost/internal/storage"
	"github.com/maltedev/landed-cost/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Page fetcher
	var fetcher scraper.Fetcher
	switch cfg.Scraper.Fetcher {
	case "browser":
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.Timeout = cfg.Scraper.Timeout
		opts.UserAgent = cfg.Scraper.UserAgent

		b, err := browser.New(opts, log)
		if err != nil {
			log.Error("failed to initialize browser", "error", err)
			os.Exit(1)
		}
		bf := scraper.NewBrowserFetcher(b)
		defer bf.Close()
		fetcher = bf
	default:
		fetcher = scraper.NewCollyFetcher(cfg.Scraper.UserAgent, cfg.Scraper.Timeout)
	}

	limiter := ratelimit.NewHostLimiter(cfg.Scraper.MinInterval, cfg.Scraper.MaxInterval)
	scraperService := scraper.NewService(fetcher, parser.New(), limiter, scraper.Policy(cfg.Scraper.FailurePolicy), log)

	// Exchange rates
	rateClient := &http.Client{Timeout: cfg.Rates.SourceTimeout}
	rates := currency.NewProvider(
		currency.DefaultSources(cfg.Rates.CurrConvAPIKey, cfg.Rates.OpenExchangeAppID, rateClient),
		currency.Options{
			TTL:           cfg.Rates.CacheTTL,
			SourceTimeout: cfg.Rates.SourceTimeout,
			FallbackRate:  cfg.Rates.FallbackRate,
		},
		m, log)

	// Result cache
	var cache storage.ResultCache
	switch cfg.Cache.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		cache = storage.NewRedisCache(redisClient, cfg.Cache.TTL, log)
	default:
		memCache := storage.NewMemoryCache(cfg.Cache.TTL)
		go memCache.StartSweeper(ctx, cfg.Cache.SweepInterval, func(removed int) {
			log.Debug("pruned expired results", "removed", removed)
		})
		cache = memCache
	}

	// Lookup history
	var (
		history       estimator.History
		historyReader api.HistoryReader
	)
	if cfg.Database.Enabled {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		repo := database.NewLookupRepository(db)
		history = repo
		historyReader = repo
	}

	calc, err := calculator.New(calculator.ShippingMode(cfg.Shipping.Mode))
	if err != nil {
		log.Error("invalid shipping mode", "error", err)
		os.Exit(1)
	}

	est := estimator.NewService(scraperService, rates, cache, estimator.Options{
		ScrapeTimeout: cfg.Scraper.Timeout,
		Calculator:    calc,
		History:       history,
	}, m, log)

	handlers := api.NewHandlers(est, rates, historyReader, log)
	router := api.NewRouter(handlers, m, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		RequestLogging: true,
	})

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server starting",
		"port", cfg.Server.Port,
		"fetcher", cfg.Scraper.Fetcher,
		"failure_policy", scraperService.Policy(),
		"cache", cfg.Cache.Backend,
		"shipping", calc.Mode(),
		"history", cfg.Database.Enabled)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
