// Package currency supplies the INR→NPR exchange rate from public rate APIs,
// cached in memory and never failing past its boundary.
package currency

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/maltedev/landed-cost/internal/metrics"
	"github.com/maltedev/landed-cost/internal/models"
)

const (
	DefaultTTL           = 4 * time.Hour
	DefaultSourceTimeout = 5 * time.Second
	DefaultFallbackRate  = 1.60
)

// Origin tells where a quoted rate came from.
type Origin int

const (
	OriginLive Origin = iota
	OriginCache
	OriginStale
	OriginDefault
)

func (o Origin) String() string {
	switch o {
	case OriginLive:
		return "live"
	case OriginCache:
		return "cache"
	case OriginStale:
		return "stale"
	default:
		return "default"
	}
}

type Quote struct {
	Rate      float64
	FetchedAt time.Time
	Origin    Origin
}

// Source reports "API" for fresh rates and "Fallback" for stale or constant ones.
func (q Quote) Source() string {
	if q.Origin == OriginLive || q.Origin == OriginCache {
		return "API"
	}
	return "Fallback"
}

// Fallback reports whether the quote did not come from a working rate API.
func (q Quote) Fallback() bool {
	return q.Source() == "Fallback"
}

// Source is one external rate API.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (float64, error)
}

type Options struct {
	TTL           time.Duration
	SourceTimeout time.Duration
	FallbackRate  float64
}

type Provider struct {
	sources []Source
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	cached *models.ExchangeRate
	group  singleflight.Group
	now    func() time.Time
}

func NewProvider(sources []Source, opts Options, m *metrics.Metrics, logger *slog.Logger) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = DefaultSourceTimeout
	}
	if !validRate(opts.FallbackRate) {
		opts.FallbackRate = DefaultFallbackRate
	}
	return &Provider{
		sources: sources,
		opts:    opts,
		logger:  logger.With("component", "currency"),
		metrics: m,
		now:     time.Now,
	}
}

// Rate returns the current INR→NPR rate. It never fails: when every source is
// down it falls back to the last known rate, then to the configured constant.
// Concurrent callers that find the cache stale share a single refresh.
func (p *Provider) Rate(ctx context.Context) Quote {
	quote, ok := p.fresh()
	if !ok {
		v, _, _ := p.group.Do("rate", func() (any, error) {
			if q, ok := p.fresh(); ok {
				return q, nil
			}
			return p.refresh(context.WithoutCancel(ctx)), nil
		})
		quote = v.(Quote)
	}

	p.metrics.ObserveRateQuote(quote.Origin.String())
	return quote
}

func (p *Provider) fresh() (Quote, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.cached == nil || p.now().Sub(p.cached.FetchedAt) >= p.opts.TTL {
		return Quote{}, false
	}
	return Quote{Rate: p.cached.Value, FetchedAt: p.cached.FetchedAt, Origin: OriginCache}, true
}

func (p *Provider) refresh(ctx context.Context) Quote {
	for _, src := range p.sources {
		sctx, cancel := context.WithTimeout(ctx, p.opts.SourceTimeout)
		rate, err := src.Fetch(sctx)
		cancel()

		if err == nil && !validRate(rate) {
			err = errInvalidRate
		}
		if err != nil {
			p.metrics.ObserveRateSourceFailure(src.Name())
			p.logger.Warn("exchange rate source failed", "source", src.Name(), "error", err)
			continue
		}

		entry := &models.ExchangeRate{Value: rate, FetchedAt: p.now()}
		p.mu.Lock()
		p.cached = entry
		p.mu.Unlock()

		p.logger.Info("exchange rate refreshed", "source", src.Name(), "rate", rate)
		return Quote{Rate: entry.Value, FetchedAt: entry.FetchedAt, Origin: OriginLive}
	}

	p.mu.RLock()
	stale := p.cached
	p.mu.RUnlock()

	if stale != nil {
		p.logger.Warn("all exchange rate sources failed, using stale rate",
			"rate", stale.Value,
			"fetched_at", stale.FetchedAt)
		return Quote{Rate: stale.Value, FetchedAt: stale.FetchedAt, Origin: OriginStale}
	}

	p.logger.Warn("all exchange rate sources failed, using default rate", "rate", p.opts.FallbackRate)
	return Quote{Rate: p.opts.FallbackRate, FetchedAt: p.now(), Origin: OriginDefault}
}

// FallbackRate is the constant used when no rate has ever been fetched.
func (p *Provider) FallbackRate() float64 {
	return p.opts.FallbackRate
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
