package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maltedev/landed-cost/internal/calculator"
	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/models"
	"github.com/maltedev/landed-cost/internal/parser"
	"github.com/maltedev/landed-cost/internal/ratelimit"
)

var (
	ErrProductNotFound = parser.ErrProductNotFound
	ErrPriceNotFound   = parser.ErrPriceNotFound
	ErrBlocked         = parser.ErrBlocked
	ErrUpstream        = errors.New("upstream request failed")
	ErrTimeout         = errors.New("scrape timed out")
)

// Policy decides what happens when a page cannot be fetched or parsed.
type Policy string

const (
	// PolicyFallback answers with a heuristic product instead of an error.
	PolicyFallback Policy = "fallback"
	// PolicyStrict returns the scrape error.
	PolicyStrict Policy = "strict"
)

// Fetcher retrieves the raw HTML of a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Service struct {
	fetcher Fetcher
	parser  *parser.Parser
	limiter *ratelimit.HostLimiter
	policy  Policy
	logger  *slog.Logger
}

func NewService(fetcher Fetcher, p *parser.Parser, limiter *ratelimit.HostLimiter, policy Policy, logger *slog.Logger) *Service {
	if policy == "" {
		policy = PolicyFallback
	}
	return &Service{
		fetcher: fetcher,
		parser:  p,
		limiter: limiter,
		policy:  policy,
		logger:  logger.With("component", "scraper"),
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Scrape fetches and parses a product page. Under PolicyFallback every failure
// except a done ctx is replaced by Heuristic.
func (s *Service) Scrape(ctx context.Context, rawURL string, id marketplace.ID) (*models.ScrapedProduct, error) {
	product, err := s.scrape(ctx, rawURL, id)
	if err == nil {
		return product, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
	}

	if s.policy == PolicyStrict {
		return nil, err
	}

	s.logger.Warn("scrape failed, using heuristic product",
		"url", rawURL,
		"marketplace", id,
		"error", err)
	return Heuristic(rawURL, id), nil
}

func (s *Service) scrape(ctx context.Context, rawURL string, id marketplace.ID) (*models.ScrapedProduct, error) {
	host := hostOf(rawURL)

	if err := s.limiter.Wait(ctx, host); err != nil {
		return nil, err
	}

	s.logger.Debug("fetching product page", "url", rawURL, "marketplace", id)

	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.limiter.RecordError(host)
		return nil, err
	}

	product, err := s.parser.Parse(string(body), id)
	if err != nil {
		if errors.Is(err, ErrBlocked) {
			s.limiter.RecordError(host)
		}
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}
	s.limiter.RecordSuccess(host)

	product.Website = id.DisplayName()
	product.PriceFormatted = calculator.FormatINR(product.Price)

	if problems := product.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrProductNotFound, problems)
	}
	return product, nil
}

// StatusError maps a non-2xx page status to a scrape error.
func StatusError(code int) error {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrProductNotFound, code)
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrBlocked, code)
	default:
		return fmt.Errorf("%w: status %d", ErrUpstream, code)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
