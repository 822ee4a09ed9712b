// Package models defines data structures for FinTrack
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used at every boundary.
const DateLayout = "2006-01-02"

// AssetClass distinguishes the data provider a holding is priced from.
type AssetClass string

const (
	AssetClassFund   AssetClass = "fund"
	AssetClassEquity AssetClass = "equity"
)

// ParseAssetClass accepts the canonical names plus the labels used by the
// original entry form ("Mutual Fund", "Stock").
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fund", "mutual fund", "mf":
		return AssetClassFund, nil
	case "equity", "stock":
		return AssetClassEquity, nil
	}
	return "", fmt.Errorf("%w: unknown asset class %q", ErrInvalidHolding, s)
}

// InvestmentMode is the variant tag of a Holding.
type InvestmentMode string

const (
	ModeLumpSum        InvestmentMode = "lump_sum"
	ModeSystematicPlan InvestmentMode = "systematic_plan"
)

// ParseInvestmentMode accepts the canonical names plus "Lumpsum" and "SIP".
func ParseInvestmentMode(s string) (InvestmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lump_sum", "lumpsum", "lump sum":
		return ModeLumpSum, nil
	case "systematic_plan", "sip", "systematic plan":
		return ModeSystematicPlan, nil
	}
	return "", fmt.Errorf("%w: unknown investment mode %q", ErrInvalidHolding, s)
}

// Transaction is one recorded installment of a systematic plan.
type Transaction struct {
	Date   time.Time
	Amount float64
	Units  float64
}

// Holding is one portfolio entry. Only user-entered facts live here; every
// derived figure is recomputed on each analysis.
//
// The variant is keyed by Mode: a LumpSum holding may carry AcquisitionPrice
// but never Transactions, a SystematicPlan holding may carry Transactions but
// never AcquisitionPrice. Zero means "not supplied" for the optional numbers.
type Holding struct {
	ID               string
	AssetClass       AssetClass
	Identifier       string
	Mode             InvestmentMode
	AmountInvested   float64 // total for LumpSum, per installment for SystematicPlan
	AcquisitionDate  time.Time
	UnitsOwned       float64
	AcquisitionPrice float64
	Transactions     []Transaction
}

// IsPlan reports whether the holding is a systematic investment plan.
func (h *Holding) IsPlan() bool {
	return h.Mode == ModeSystematicPlan
}

// InstallmentAmount is the amount paid for tx, falling back to the plan's
// per-installment amount when the transaction does not record one.
func (h *Holding) InstallmentAmount(tx Transaction) float64 {
	if tx.Amount > 0 {
		return tx.Amount
	}
	return h.AmountInvested
}

// Validate checks the facts of a holding before it is persisted.
func (h *Holding) Validate() error {
	if strings.TrimSpace(h.Identifier) == "" {
		return fmt.Errorf("%w: identifier is required", ErrInvalidHolding)
	}
	if h.AssetClass != AssetClassFund && h.AssetClass != AssetClassEquity {
		return fmt.Errorf("%w: unknown asset class %q", ErrInvalidHolding, h.AssetClass)
	}
	if h.AmountInvested <= 0 {
		return fmt.Errorf("%w: amount invested must be positive", ErrInvalidHolding)
	}
	if h.AcquisitionDate.IsZero() {
		return fmt.Errorf("%w: acquisition date is required", ErrInvalidHolding)
	}
	if h.UnitsOwned < 0 || h.AcquisitionPrice < 0 {
		return fmt.Errorf("%w: units and price cannot be negative", ErrInvalidHolding)
	}

	switch h.Mode {
	case ModeLumpSum:
		if len(h.Transactions) > 0 {
			return fmt.Errorf("%w: lump sum holdings do not carry transactions", ErrInvalidHolding)
		}
	case ModeSystematicPlan:
		if h.AcquisitionPrice > 0 {
			return fmt.Errorf("%w: systematic plans are priced per transaction", ErrInvalidHolding)
		}
		for i, tx := range h.Transactions {
			if tx.Date.IsZero() || tx.Amount < 0 || tx.Units <= 0 {
				return fmt.Errorf("%w: transaction %d needs a date, a non-negative amount and positive units", ErrInvalidHolding, i+1)
			}
		}
	default:
		return fmt.Errorf("%w: unknown investment mode %q", ErrInvalidHolding, h.Mode)
	}
	return nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", ErrInvalidHolding, s)
	}
	return t, nil
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
