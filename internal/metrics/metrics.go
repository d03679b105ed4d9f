// Package metrics exports Prometheus metrics for the landed-cost service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "landed_cost"

type Metrics struct {
	registry prometheus.Gatherer

	Estimates          *prometheus.CounterVec
	ScrapeDuration     *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	RateQuotes         *prometheus.CounterVec
	RateSourceFailures *prometheus.CounterVec
	LookupWriteErrors  prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all metrics on a fresh registry, so several instances can
// live side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newWithRegistry(reg)
}

func newWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.Estimates = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimates_total",
		Help:      "Landed-cost estimates by marketplace and outcome (scraped, estimated, cached, error)",
	}, []string{"marketplace", "outcome"})

	m.ScrapeDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Time spent fetching and parsing a product page",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"marketplace"})

	m.CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by result (hit, miss)",
	}, []string{"result"})

	m.RateQuotes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_quotes_total",
		Help:      "Exchange rate quotes served by origin (live, cache, stale, default)",
	}, []string{"origin"})

	m.RateSourceFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_source_failures_total",
		Help:      "Failed calls to exchange rate sources",
	}, []string{"source"})

	m.LookupWriteErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_write_errors_total",
		Help:      "Failed cache or history writes after a successful estimate",
	})

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return m
}

func (m *Metrics) ObserveEstimate(marketplace, outcome string) {
	if m == nil {
		return
	}
	m.Estimates.WithLabelValues(marketplace, outcome).Inc()
}

func (m *Metrics) ObserveScrape(marketplace string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.WithLabelValues(marketplace).Observe(d.Seconds())
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRateQuote(origin string) {
	if m == nil {
		return
	}
	m.RateQuotes.WithLabelValues(origin).Inc()
}

func (m *Metrics) ObserveRateSourceFailure(source string) {
	if m == nil {
		return
	}
	m.RateSourceFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveWriteError() {
	if m == nil {
		return
	}
	m.LookupWriteErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
