// Package cashflow builds dated cash flows and solves their annualised
// internal rate of return.
package cashflow

import (
	"sort"
	"time"

	"github.com/bobmcallan/fintrack/internal/models"
)

// HoldingFlows returns the investment outflows of a holding. A lump sum is a
// single outflow of totalInvested on the acquisition date; a systematic plan
// contributes one outflow per recorded transaction on its own date.
func HoldingFlows(h *models.Holding, totalInvested float64) []models.CashFlow {
	if !h.IsPlan() {
		if totalInvested <= 0 {
			return nil
		}
		return []models.CashFlow{{Date: models.Day(h.AcquisitionDate), Amount: -totalInvested}}
	}

	flows := make([]models.CashFlow, 0, len(h.Transactions))
	for _, tx := range h.Transactions {
		amount := h.InstallmentAmount(tx)
		if amount <= 0 {
			continue
		}
		flows = append(flows, models.CashFlow{Date: models.Day(tx.Date), Amount: -amount})
	}
	return flows
}

// WithTerminal appends the current valuation as a positive inflow dated today.
// The input slice is not modified.
func WithTerminal(flows []models.CashFlow, value float64, today time.Time) []models.CashFlow {
	out := make([]models.CashFlow, len(flows), len(flows)+1)
	copy(out, flows)
	if value > 0 {
		out = append(out, models.CashFlow{Date: models.Day(today), Amount: value})
	}
	return out
}

// Sort orders flows by date, keeping entry order for equal dates.
func Sort(flows []models.CashFlow) {
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
}
