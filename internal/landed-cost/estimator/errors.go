package estimator

import (
	"context"
	"errors"
	"net/http"

	"github.com/maltedev/landed-cost/internal/marketplace"
	"github.com/maltedev/landed-cost/internal/scraper"
)

// Problem is the user-facing form of an Estimate error.
type Problem struct {
	Status   int
	Category string
	Message  string
}

const (
	CategoryInvalidURL      = "invalid_url"
	CategoryUnsupported     = "unsupported_website"
	CategoryNotFound        = "product_not_found"
	CategoryUpstream        = "upstream_error"
	CategoryTimeout         = "timeout"
	CategoryProcessingError = "processing_error"
)

// Classify maps an Estimate error to a status, category and display message.
func Classify(err error) Problem {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return Problem{http.StatusBadRequest, CategoryInvalidURL, err.Error()}
	case errors.Is(err, ErrUnsupportedSite):
		return Problem{http.StatusBadRequest, CategoryUnsupported, marketplace.UnsupportedMessage()}
	case errors.Is(err, scraper.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Problem{http.StatusGatewayTimeout, CategoryTimeout,
			"The product page took too long to load. Please try again later."}
	case errors.Is(err, scraper.ErrProductNotFound), errors.Is(err, scraper.ErrPriceNotFound):
		return Problem{http.StatusNotFound, CategoryNotFound,
			"We couldn't extract this product's details. The page structure may have changed or the product is unavailable."}
	case errors.Is(err, scraper.ErrBlocked):
		return Problem{http.StatusBadGateway, CategoryUpstream,
			"This website might be blocking our access. Try a different product or website."}
	case errors.Is(err, scraper.ErrUpstream):
		return Problem{http.StatusBadGateway, CategoryUpstream,
			"Could not reach the store website. Please try again."}
	default:
		return Problem{http.StatusInternalServerError, CategoryProcessingError,
			"Failed to fetch product details"}
	}
}
