package cashflow

import (
	"fmt"
	"math"

	"github.com/bobmcallan/fintrack/internal/models"
)

// daysPerYear is the XIRR year basis. CAGR uses 365.25 instead.
const daysPerYear = 365.0

// XIRR computes the annualised internal rate of return of flows as a
// percentage. Flows may arrive in any order. It returns ErrNotApplicable when
// the flows do not change sign or the solver does not converge.
func XIRR(flows []models.CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, fmt.Errorf("%w: need at least two cash flows", models.ErrNotApplicable)
	}

	sorted := make([]models.CashFlow, len(flows))
	copy(sorted, flows)
	Sort(sorted)

	// Need at least one negative and one positive flow
	hasNeg, hasPos := false, false
	for _, f := range sorted {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, fmt.Errorf("%w: cash flows do not change sign", models.ErrNotApplicable)
	}

	rate, ok := solveXIRR(sorted)
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: XIRR did not converge", models.ErrNotApplicable)
	}
	return rate * 100, nil
}

// solveXIRR uses Newton-Raphson to find r such that
// sum(amount_i / (1+r)^years_i) = 0, falling back to bisection.
// Returns the rate as a decimal (0.12 for 12%).
func solveXIRR(flows []models.CashFlow) (float64, bool) {
	const (
		maxIter = 100
		tol     = 1e-7
		minRate = -0.999
	)

	baseDate := flows[0].Date

	years := make([]float64, len(flows))
	for i, f := range flows {
		days := f.Date.Sub(baseDate).Hours() / 24
		years[i] = days / daysPerYear
	}

	// Initial guess from the simple return
	totalInvested, totalReceived := 0.0, 0.0
	for _, f := range flows {
		if f.Amount < 0 {
			totalInvested -= f.Amount
		} else {
			totalReceived += f.Amount
		}
	}

	rate := 0.1
	if totalInvested > 0 {
		simpleReturn := totalReceived/totalInvested - 1
		if simpleReturn > -0.9 && simpleReturn < 10 {
			rate = simpleReturn
		}
	}

	for iter := 0; iter < maxIter; iter++ {
		npv, dnpv := 0.0, 0.0
		base := 1 + rate
		for i, f := range flows {
			discount := math.Pow(base, years[i])
			if discount == 0 || math.IsInf(discount, 0) {
				continue
			}
			npv += f.Amount / discount
			if years[i] != 0 {
				dnpv -= years[i] * f.Amount / (discount * base)
			}
		}

		if math.Abs(npv) < tol {
			return rate, true
		}
		if dnpv == 0 || math.IsNaN(dnpv) {
			break
		}

		next := rate - npv/dnpv
		if next < minRate {
			next = minRate
		}
		if next > 100 {
			next = 100
		}
		rate = next
	}

	return bisectXIRR(flows, years)
}

// bisectXIRR bisects on g = ln(1+r), so rates arbitrarily close to -100%
// stay representable. The bracket starts at r in [-0.99, 10] and its lower
// end is pushed down until the NPV changes sign.
func bisectXIRR(flows []models.CashFlow, years []float64) (float64, bool) {
	const (
		maxIter   = 200
		tol       = 1e-6
		minGrowth = -700.0 // exp(-700) is near the smallest normal float64
	)

	npvAt := func(g float64) float64 {
		sum := 0.0
		for i, f := range flows {
			sum += f.Amount * math.Exp(-g*years[i])
		}
		return sum
	}

	lo, hi := math.Log(0.01), math.Log(11)
	npvLo, npvHi := npvAt(lo), npvAt(hi)
	if math.IsNaN(npvHi) {
		return 0, false
	}
	for npvLo*npvHi > 0 && lo > minGrowth {
		lo = math.Max(lo*2, minGrowth)
		npvLo = npvAt(lo)
		if math.IsNaN(npvLo) {
			return 0, false
		}
	}
	if math.IsNaN(npvLo) || npvLo*npvHi > 0 {
		return 0, false
	}

	for iter := 0; iter < maxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npvAt(mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < tol || hi-lo < 1e-12 {
			return math.Exp(mid) - 1, true
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}
	return 0, false
}
