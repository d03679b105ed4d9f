package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyPricePattern = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr\b)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	barePricePattern     = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
)

// ParsePrice reads an INR amount such as "₹3,499.00", "Rs. 1,299" or "2499".
// A currency marker takes precedence over any other number in the text.
func ParsePrice(s string) (float64, bool) {
	var raw string
	if m := currencyPricePattern.FindStringSubmatch(s); m != nil {
		raw = m[1]
	} else {
		raw = barePricePattern.FindString(s)
	}
	if raw == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, false
	}
	return amount, true
}
