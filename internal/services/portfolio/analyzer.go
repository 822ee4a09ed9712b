// Package portfolio values holdings and manages the stored portfolio.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/services/cashflow"
	"github.com/bobmcallan/fintrack/internal/services/valuation"
)

// Analyzer values holdings against live prices. A failure on one holding
// becomes an annotation on that holding's result and never stops the run.
type Analyzer struct {
	prices interfaces.PriceSource
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewAnalyzer creates an analyzer over a price source
func NewAnalyzer(prices interfaces.PriceSource, logger *common.Logger) *Analyzer {
	return &Analyzer{
		prices: prices,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the wall clock
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Analyze values every holding and aggregates the valid ones. Details keep
// the order of holdings.
func (a *Analyzer) Analyze(ctx context.Context, holdings []models.Holding) *models.Analysis {
	today := models.Day(a.now())

	details := make([]models.HoldingResult, 0, len(holdings))
	var flows []models.CashFlow

	for i := range holdings {
		result, holdingFlows := a.valueHolding(ctx, holdings[i], today)
		details = append(details, result)
		if result.Valid() {
			flows = append(flows, holdingFlows...)
		}
	}

	summary := Aggregate(details, flows, today)
	a.logger.Info().
		Int("holdings", len(details)).
		Int("valued", summary.HoldingsValued).
		Int("excluded", summary.HoldingsExcluded).
		Msg("Portfolio analysed")

	return &models.Analysis{Details: details, Summary: summary}
}

// valueHolding values one holding. The returned flows are its investment
// outflows, for the portfolio-level XIRR.
func (a *Analyzer) valueHolding(ctx context.Context, h models.Holding, today time.Time) (models.HoldingResult, []models.CashFlow) {
	result := models.HoldingResult{
		ID:              h.ID,
		AssetClass:      h.AssetClass,
		Identifier:      h.Identifier,
		Mode:            h.Mode,
		AmountInvested:  h.AmountInvested,
		AcquisitionDate: h.AcquisitionDate.Format(models.DateLayout),
		Installments:    len(h.Transactions),
		TotalInvested:   common.Round2(valuation.TotalInvested(&h)),
		DataQuality:     models.DataQualityIncomplete,
	}

	fail := func(err error) (models.HoldingResult, []models.CashFlow) {
		a.logger.Warn().Err(err).Str("holding", h.Identifier).Msg("Holding excluded from totals")
		result.Error = err.Error()
		return result, nil
	}

	code, err := a.prices.ResolveIdentifier(ctx, h.AssetClass, h.Identifier)
	if err != nil {
		return fail(err)
	}

	// A lump sum with neither units nor price is estimated from the
	// acquisition-date price.
	if !h.IsPlan() && h.UnitsOwned <= 0 && h.AcquisitionPrice <= 0 {
		price, err := a.prices.PriceAt(ctx, h.AssetClass, code, h.AcquisitionDate)
		if err != nil {
			return fail(fmt.Errorf("%w: missing units or price (%v)", models.ErrUnresolved, err))
		}
		h.AcquisitionPrice = price
	}

	units, quality, err := valuation.ResolveUnits(&h)
	if err != nil {
		return fail(err)
	}

	current, err := a.prices.CurrentPrice(ctx, h.AssetClass, code)
	if err != nil {
		return fail(err)
	}

	invested := valuation.TotalInvested(&h)
	figures := valuation.Value(invested, units, current)

	result.Units = units
	result.CurrentPrice = current
	result.CurrentValue = common.Round2(figures.CurrentValue)
	result.GainLoss = common.Round2(figures.GainLoss)
	result.PercentageReturn = common.Round2(figures.PercentageReturn)
	result.DataQuality = quality
	if units > 0 {
		result.AveragePrice = common.Round2(invested / units)
	}

	flows := cashflow.HoldingFlows(&h, invested)

	if h.IsPlan() {
		xirr, err := cashflow.XIRR(cashflow.WithTerminal(flows, figures.CurrentValue, today))
		if err == nil {
			result.XIRR = roundedPtr(xirr)
		}
	} else {
		cagr, err := valuation.CAGR(invested, figures.CurrentValue, h.AcquisitionDate, today)
		if err == nil {
			result.CAGR = roundedPtr(cagr)
		}
	}

	return result, flows
}

// Aggregate totals the valid details and solves the portfolio XIRR from
// flows plus one terminal inflow of the total current value dated today.
func Aggregate(details []models.HoldingResult, flows []models.CashFlow, today time.Time) models.PortfolioSummary {
	summary := models.PortfolioSummary{AsOf: models.Day(today).Format(models.DateLayout)}

	invested, value := 0.0, 0.0
	for i := range details {
		if !details[i].Valid() {
			summary.HoldingsExcluded++
			continue
		}
		summary.HoldingsValued++
		invested += details[i].TotalInvested
		value += details[i].CurrentValue
	}

	summary.TotalInvested = common.Round2(invested)
	summary.TotalCurrentValue = common.Round2(value)
	summary.TotalGainLoss = common.Round2(value - invested)
	if invested > 0 {
		summary.PercentageReturn = common.Round2((value - invested) / invested * 100)
	}

	if summary.HoldingsValued > 0 {
		if xirr, err := cashflow.XIRR(cashflow.WithTerminal(flows, value, today)); err == nil {
			summary.XIRR = roundedPtr(xirr)
		}
	}
	return summary
}

func roundedPtr(v float64) *float64 {
	r := common.Round2(v)
	return &r
}
