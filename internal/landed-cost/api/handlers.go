package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/maltedev/landed-cost/internal/currency"
	"github.com/maltedev/landed-cost/internal/database"
	"github.com/maltedev/landed-cost/internal/landed-cost/estimator"
	"github.com/maltedev/landed-cost/internal/models"
)

// maxBodyBytes bounds POST /scrape bodies.
const maxBodyBytes = 1 << 16

type Estimator interface {
	Estimate(ctx context.Context, rawURL string) (*models.ProductDetails, error)
}

type RateProvider interface {
	Rate(ctx context.Context) currency.Quote
}

type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]database.Lookup, error)
}

type Handlers struct {
	estimator Estimator
	rates     RateProvider
	history   HistoryReader
	logger    *slog.Logger
}

// NewHandlers wires the HTTP handlers. history may be nil.
func NewHandlers(est Estimator, rates RateProvider, history HistoryReader, logger *slog.Logger) *Handlers {
	return &Handlers{
		estimator: est,
		rates:     rates,
		history:   history,
		logger:    logger.With("component", "api"),
	}
}

// ScrapeRequest is the POST /scrape body.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// ExchangeRateResponse is the GET /exchange-rate body.
type ExchangeRateResponse struct {
	Rate      float64 `json:"rate"`
	Success   bool    `json:"success"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Note      string  `json:"note,omitempty"`
	Message   string  `json:"message,omitempty"`
}

type HistoryResponse struct {
	Lookups []database.Lookup `json:"lookups"`
}

// Scrape handles POST /scrape
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, estimator.Problem{
			Status:   http.StatusBadRequest,
			Category: estimator.CategoryInvalidURL,
			Message:  "invalid request body: expected {\"url\": \"...\"}",
		})
		return
	}

	details, err := h.estimator.Estimate(r.Context(), req.URL)
	if err != nil {
		problem := estimator.Classify(err)
		if problem.Status >= http.StatusInternalServerError {
			h.logger.Error("failed to estimate landed cost", "url", req.URL, "error", err)
		}
		h.respondError(w, problem)
		return
	}

	h.respondJSON(w, http.StatusOK, details)
}

// ExchangeRate handles GET /exchange-rate. It always answers 200.
func (h *Handlers) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	quote := h.rates.Rate(r.Context())

	resp := ExchangeRateResponse{
		Rate:      quote.Rate,
		Success:   true,
		Source:    quote.Source(),
		Timestamp: quote.FetchedAt.UTC().Format(time.RFC3339),
	}

	switch quote.Origin {
	case currency.OriginStale:
		resp.Note = "Live exchange rate unavailable"
		resp.Message = "Using the last known rate from " + resp.Timestamp
	case currency.OriginDefault:
		resp.Note = "Live exchange rate unavailable"
		resp.Message = "Using the default rate of " + strconv.FormatFloat(quote.Rate, 'f', -1, 64) + " NPR per INR"
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// History handles GET /history?limit=N
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, estimator.Problem{
				Status:   http.StatusBadRequest,
				Category: "invalid_request",
				Message:  "limit must be an integer",
			})
			return
		}
		limit = n
	}

	lookups, err := h.history.Recent(r.Context(), database.ClampLimit(limit))
	if err != nil {
		h.logger.Error("failed to list lookups", "error", err)
		h.respondError(w, estimator.Problem{
			Status:   http.StatusInternalServerError,
			Category: estimator.CategoryProcessingError,
			Message:  "failed to load lookup history",
		})
		return
	}
	if lookups == nil {
		lookups = []database.Lookup{}
	}

	h.respondJSON(w, http.StatusOK, HistoryResponse{Lookups: lookups})
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, p estimator.Problem) {
	h.respondJSON(w, p.Status, ErrorResponse{
		Message:    p.Message,
		Error:      p.Category,
		StatusCode: p.Status,
	})
}
