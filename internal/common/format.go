package common

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the currency amounts are rendered in. The portfolio is
// single-currency; no conversion is applied.
const DisplayCurrency = money.INR

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatMoney renders an amount in the display currency, e.g. "₹12,100.00".
func FormatMoney(v float64) string {
	return money.NewFromFloat(v, DisplayCurrency).Display()
}

// FormatSignedMoney renders an amount with an explicit sign for gains.
func FormatSignedMoney(v float64) string {
	if v > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatPct renders a percentage with two decimals.
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatSignedPct renders a percentage with an explicit sign for gains.
func FormatSignedPct(v float64) string {
	if v > 0 {
		return "+" + FormatPct(v)
	}
	return FormatPct(v)
}

// FormatOptionalPct renders a percentage that may be undefined as "N/A".
func FormatOptionalPct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return FormatSignedPct(*v)
}
