package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maltedev/landed-cost/internal/metrics"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RequestTimeout bounds each request; 0 disables it.
	RequestTimeout time.Duration
	// RequestLogging enables chi's access log.
	RequestLogging bool
}

// NewRouter mounts the API at / and /api.
func NewRouter(h *Handlers, m *metrics.Metrics, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "https://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	routes := func(r chi.Router) {
		r.Post("/scrape", h.Scrape)
		r.Get("/exchange-rate", h.ExchangeRate)
		if h.history != nil {
			r.Get("/history", h.History)
		}
	}

	r.Group(routes)
	r.Route("/api", routes)

	return r
}
