package calculator

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	inrPrinter = message.NewPrinter(language.MustParse("en-IN"))
	nprPrinter = message.NewPrinter(language.English)
)

// FormatINR renders an amount as "₹ 1,23,456.78" with at most two fraction digits.
func FormatINR(amount float64) string {
	return "₹ " + inrPrinter.Sprint(number.Decimal(roundPaisa(amount), number.MaxFractionDigits(2)))
}

// FormatNPR renders an amount as "NPR 123,456.78" with at most two fraction digits.
func FormatNPR(amount float64) string {
	return "NPR " + nprPrinter.Sprint(number.Decimal(roundPaisa(amount), number.MaxFractionDigits(2)))
}

// roundPaisa rounds to two places, half away from zero.
func roundPaisa(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
