// Package valuation derives units, invested capital and return figures for a
// single holding. Every function is pure; prices are fetched by the caller.
package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/fintrack/internal/models"
)

// daysPerYear is the CAGR year basis.
const daysPerYear = 365.25

// Figures is the valuation of a holding at a current price.
type Figures struct {
	CurrentValue     float64
	GainLoss         float64
	PercentageReturn float64
}

// ResolveUnits determines how many units a holding represents, in order of
// precedence: explicit units, amount over acquisition price (lump sum only),
// then the sum of recorded transaction units. A systematic plan without
// transactions is never resolved.
func ResolveUnits(h *models.Holding) (float64, models.DataQuality, error) {
	if h.IsPlan() && len(h.Transactions) == 0 {
		return 0, models.DataQualityIncomplete, fmt.Errorf("%w: SIP requires transaction-level data", models.ErrUnresolved)
	}

	if h.UnitsOwned > 0 {
		return h.UnitsOwned, models.DataQualityVerified, nil
	}

	if !h.IsPlan() {
		if h.AcquisitionPrice > 0 && h.AmountInvested > 0 {
			return h.AmountInvested / h.AcquisitionPrice, models.DataQualityEstimated, nil
		}
		return 0, models.DataQualityIncomplete, fmt.Errorf("%w: missing units or price", models.ErrUnresolved)
	}

	units := 0.0
	for _, tx := range h.Transactions {
		units += tx.Units
	}
	if units <= 0 {
		return 0, models.DataQualityIncomplete, fmt.Errorf("%w: missing units or price", models.ErrUnresolved)
	}
	return units, models.DataQualityVerified, nil
}

// TotalInvested is the capital put into a holding.
func TotalInvested(h *models.Holding) float64 {
	if !h.IsPlan() {
		return h.AmountInvested
	}
	total := 0.0
	for _, tx := range h.Transactions {
		total += h.InstallmentAmount(tx)
	}
	return total
}

// Value computes current value and gain for units held at price.
func Value(totalInvested, units, price float64) Figures {
	current := units * price
	f := Figures{
		CurrentValue: current,
		GainLoss:     current - totalInvested,
	}
	if totalInvested > 0 {
		f.PercentageReturn = f.GainLoss / totalInvested * 100
	}
	return f
}

// CAGR is the compound annual growth rate, as a percentage, between the
// acquisition date and today.
func CAGR(totalInvested, currentValue float64, acquired, today time.Time) (float64, error) {
	if totalInvested <= 0 {
		return 0, fmt.Errorf("%w: nothing invested", models.ErrNotApplicable)
	}
	years := float64(models.DaysBetween(acquired, today)) / daysPerYear
	if years <= 0 {
		return 0, fmt.Errorf("%w: holding period is not positive", models.ErrNotApplicable)
	}
	if currentValue < 0 {
		return 0, fmt.Errorf("%w: negative value", models.ErrNotApplicable)
	}
	return (math.Pow(currentValue/totalInvested, 1/years) - 1) * 100, nil
}
