package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveEstimate("amazon", "scraped")
		m.ObserveScrape("amazon", time.Second)
		m.ObserveCacheLookup(true)
		m.ObserveRateQuote("live")
		m.ObserveRateSourceFailure("open.er-api.com")
		m.ObserveWriteError()
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveEstimate("amazon", "scraped")
	m.ObserveEstimate("amazon", "scraped")
	m.ObserveEstimate("myntra", "estimated")
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveRateQuote("default")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Estimates.WithLabelValues("amazon", "scraped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Estimates.WithLabelValues("myntra", "estimated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateQuotes.WithLabelValues("default")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveWriteError()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.LookupWriteErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LookupWriteErrors))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "landed_cost_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
