package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/landed-cost/internal/calculator"
	"github.com/maltedev/landed-cost/internal/currency"
	"github.com/maltedev/landed-cost/internal/database"
	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/metrics"
	"github.com/maltedev/landed-cost/internal/models"
	"github.com/maltedev/landed-cost/internal/parser"
	"github.com/maltedev/landed-cost/internal/storage"
)

const DefaultScrapeTimeout = 15 * time.Second

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrUnsupportedSite = errors.New("unsupported website")
)

type Scraper interface {
	Scrape(ctx context.Context, url string, id marketplace.ID) (*models.ScrapedProduct, error)
}

type RateProvider interface {
	Rate(ctx context.Context) currency.Quote
}

// History persists resolved lookups. Optional.
type History interface {
	Record(ctx context.Context, l *database.Lookup) error
}

type Options struct {
	ScrapeTimeout time.Duration
	// Calculator defaults to flat shipping.
	Calculator *calculator.Calculator
	History    History
}

type Service struct {
	scraper       Scraper
	rates         RateProvider
	cache         storage.ResultCache
	calc          *calculator.Calculator
	history       History
	scrapeTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewService(scraper Scraper, rates RateProvider, cache storage.ResultCache, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = DefaultScrapeTimeout
	}
	if opts.Calculator == nil {
		opts.Calculator, _ = calculator.New(calculator.ShippingFlat)
	}

	return &Service{
		scraper:       scraper,
		rates:         rates,
		cache:         cache,
		calc:          opts.Calculator,
		history:       opts.History,
		scrapeTimeout: opts.ScrapeTimeout,
		metrics:       m,
		logger:        logger.With("component", "estimator"),
	}
}

// Estimate resolves the landed cost for a product URL.
func (s *Service) Estimate(ctx context.Context, rawURL string) (*models.ProductDetails, error) {
	lookupID := uuid.New()
	logger := s.logger.With("lookup_id", lookupID.String())

	target, err := ValidateURL(rawURL)
	if err != nil {
		logger.Info("rejected url", "url", rawURL, "error", err)
		s.metrics.ObserveEstimate(string(marketplace.Unknown), "invalid")
		return nil, err
	}
	logger = logger.With("url", target)

	id := marketplace.Classify(target)
	if !id.Known() {
		logger.Info("unsupported website")
		s.metrics.ObserveEstimate(string(id), "unsupported")
		return nil, ErrUnsupportedSite
	}
	logger = logger.With("marketplace", id)

	if details, ok := s.cache.Get(ctx, target); ok {
		logger.Debug("serving cached result")
		s.metrics.ObserveCacheLookup(true)
		s.metrics.ObserveEstimate(string(id), "cached")
		return details, nil
	}
	s.metrics.ObserveCacheLookup(false)

	product, err := s.scrape(ctx, target, id)
	if err != nil {
		logger.Warn("scrape failed", "error", err)
		s.metrics.ObserveEstimate(string(id), "failed")
		return nil, err
	}

	quote := s.rates.Rate(ctx)
	rate := quote.Rate
	if rate <= 0 {
		logger.Warn("rate provider returned invalid rate, using default", "rate", rate)
		rate = currency.DefaultFallbackRate
	}

	weightKg, _ := parser.ParseWeight(product.Weight)
	breakdown := s.calc.Calculate(product.Price, rate, weightKg)

	details := &models.ProductDetails{
		Product:       product.Summary(),
		CostBreakdown: breakdown.Display(),
	}

	if err := s.cache.Put(ctx, target, details); err != nil {
		logger.Warn("failed to cache result", "error", err)
		s.metrics.ObserveWriteError()
	}

	s.record(ctx, logger, &database.Lookup{
		ID:           lookupID,
		URL:          target,
		Marketplace:  string(id),
		ProductID:    marketplace.ProductID(target, id),
		Title:        product.Title,
		PriceINR:     product.Price,
		ExchangeRate: rate,
		TotalNPR:     breakdown.TotalNPR(),
		Estimated:    product.Estimated,
	})

	outcome := "scraped"
	if product.Estimated {
		outcome = "estimated"
	}
	s.metrics.ObserveEstimate(string(id), outcome)

	logger.Info("estimate complete",
		"title", product.Title,
		"price_inr", product.Price,
		"rate", rate,
		"rate_source", quote.Source(),
		"total_npr", breakdown.TotalNPR(),
		"estimated", product.Estimated)

	return details, nil
}

func (s *Service) scrape(ctx context.Context, target string, id marketplace.ID) (*models.ScrapedProduct, error) {
	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	start := time.Now()
	product, err := s.scraper.Scrape(scrapeCtx, target, id)
	s.metrics.ObserveScrape(string(id), time.Since(start))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: empty result", parser.ErrProductNotFound)
	}
	return product, nil
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, l *database.Lookup) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, l); err != nil {
		logger.Warn("failed to record lookup", "error", err)
		s.metrics.ObserveWriteError()
	}
}

// ValidateURL trims raw and checks it is an absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidURL)
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidURL)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: url must include a host", ErrInvalidURL)
	}

	return target, nil
}
