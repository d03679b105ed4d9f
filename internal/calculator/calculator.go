// Package calculator turns an INR price and an INR→NPR rate into a landed cost in Nepal.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maltedev/landed-cost/internal/models"
)

// ShippingMode selects how the shipping fee is computed.
type ShippingMode string

const (
	// ShippingFlat charges BaseShippingCost regardless of weight.
	ShippingFlat ShippingMode = "flat"
	// ShippingWeight charges BaseShippingCost plus WeightShippingPerKg per kilogram.
	ShippingWeight ShippingMode = "weight"
)

var (
	CustomsDutyRate     = decimal.RequireFromString("0.30")
	BaseShippingCost    = decimal.NewFromInt(1500)
	WeightShippingPerKg = decimal.NewFromInt(500)
	DefaultWeightKg     = 0.5
)

// Breakdown holds the numeric result of a calculation, all amounts in NPR except PriceINR.
type Breakdown struct {
	PriceINR    decimal.Decimal
	Rate        decimal.Decimal
	PriceNPR    decimal.Decimal
	CustomsDuty decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
}

// Calculate computes the landed cost with the flat shipping fee.
func Calculate(priceINR, rate float64) Breakdown {
	return calculate(decimal.NewFromFloat(priceINR), decimal.NewFromFloat(rate), BaseShippingCost)
}

// ShippingForWeight returns the weight-scaled shipping fee in NPR.
// Non-positive weights are treated as DefaultWeightKg.
func ShippingForWeight(weightKg float64) decimal.Decimal {
	if weightKg <= 0 {
		weightKg = DefaultWeightKg
	}
	return BaseShippingCost.Add(WeightShippingPerKg.Mul(decimal.NewFromFloat(weightKg)))
}

// Calculator applies a configured shipping mode.
type Calculator struct {
	mode ShippingMode
}

func New(mode ShippingMode) (*Calculator, error) {
	switch mode {
	case ShippingFlat, ShippingWeight:
	case "":
		mode = ShippingFlat
	default:
		return nil, fmt.Errorf("unknown shipping mode: %q", mode)
	}
	return &Calculator{mode: mode}, nil
}

// Mode returns the configured shipping mode.
func (c *Calculator) Mode() ShippingMode {
	return c.mode
}

// Calculate computes the landed cost. weightKg is only used in ShippingWeight mode.
func (c *Calculator) Calculate(priceINR, rate, weightKg float64) Breakdown {
	if c.mode == ShippingWeight {
		return calculate(decimal.NewFromFloat(priceINR), decimal.NewFromFloat(rate), ShippingForWeight(weightKg))
	}
	return Calculate(priceINR, rate)
}

func calculate(priceINR, rate, shipping decimal.Decimal) Breakdown {
	priceNPR := priceINR.Mul(rate)
	duty := priceNPR.Mul(CustomsDutyRate)

	return Breakdown{
		PriceINR:    priceINR,
		Rate:        rate,
		PriceNPR:    priceNPR,
		CustomsDuty: duty,
		Shipping:    shipping,
		Total:       priceNPR.Add(duty).Add(shipping),
	}
}

// TotalNPR returns the total rounded to paisa.
func (b Breakdown) TotalNPR() float64 {
	return b.Total.Round(2).InexactFloat64()
}

// Display renders the breakdown for the API. Amounts are rounded half away
// from zero to paisa before formatting.
func (b Breakdown) Display() models.CostBreakdown {
	return models.CostBreakdown{
		ProductPriceINR: FormatINR(b.PriceINR.Round(2).InexactFloat64()),
		ExchangeRate:    b.Rate.InexactFloat64(),
		ProductPriceNPR: FormatNPR(b.PriceNPR.Round(2).InexactFloat64()),
		CustomsDuty:     FormatNPR(b.CustomsDuty.Round(2).InexactFloat64()),
		ShippingCost:    FormatNPR(b.Shipping.Round(2).InexactFloat64()),
		TotalCostNPR:    FormatNPR(b.Total.Round(2).InexactFloat64()),
	}
}
