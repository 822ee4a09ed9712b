// Package report renders an analysis as markdown, terminal text, HTML and a
// PNG chart.
package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/models"
)

// FormatAnalysis renders an analysis as a markdown report.
func FormatAnalysis(a *models.Analysis) string {
	var sb strings.Builder
	s := a.Summary

	sb.WriteString("# Portfolio Analysis\n\n")
	sb.WriteString(fmt.Sprintf("**As of:** %s\n", s.AsOf))
	sb.WriteString(fmt.Sprintf("**Total Invested:** %s\n", common.FormatMoney(s.TotalInvested)))
	sb.WriteString(fmt.Sprintf("**Current Value:** %s\n", common.FormatMoney(s.TotalCurrentValue)))
	sb.WriteString(fmt.Sprintf("**Gain/Loss:** %s (%s)\n", common.FormatSignedMoney(s.TotalGainLoss), common.FormatSignedPct(s.PercentageReturn)))
	sb.WriteString(fmt.Sprintf("**Portfolio XIRR:** %s\n\n", common.FormatOptionalPct(s.XIRR)))

	var valued, excluded []models.HoldingResult
	for _, d := range a.Details {
		if d.Valid() {
			valued = append(valued, d)
		} else {
			excluded = append(excluded, d)
		}
	}

	if len(valued) > 0 {
		sb.WriteString("## Holdings\n\n")
		sb.WriteString("| Holding | Type | Mode | Invested | Units | Avg Price | Price | Value | Gain/Loss | Return | CAGR | XIRR | Data |\n")
		sb.WriteString("|---------|------|------|----------|-------|-----------|-------|-------|-----------|--------|------|------|------|\n")
		for _, d := range valued {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.4f | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				escapeCell(d.Identifier), assetLabel(d.AssetClass), modeLabel(d),
				common.FormatMoney(d.TotalInvested), d.Units,
				common.FormatMoney(d.AveragePrice), common.FormatMoney(d.CurrentPrice),
				common.FormatMoney(d.CurrentValue), common.FormatSignedMoney(d.GainLoss),
				common.FormatSignedPct(d.PercentageReturn),
				common.FormatOptionalPct(d.CAGR), common.FormatOptionalPct(d.XIRR),
				d.DataQuality,
			))
		}
		sb.WriteString("\n")
	}

	if len(excluded) > 0 {
		sb.WriteString("## Excluded Holdings\n\n")
		sb.WriteString("These holdings could not be valued and are not included in the totals.\n\n")
		sb.WriteString("| Holding | Type | Mode | Invested | Reason |\n")
		sb.WriteString("|---------|------|------|----------|--------|\n")
		for _, d := range excluded {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				escapeCell(d.Identifier), assetLabel(d.AssetClass), modeLabel(d),
				common.FormatMoney(d.TotalInvested), escapeCell(d.Error)))
		}
		sb.WriteString("\n")
	}

	if len(a.Details) == 0 {
		sb.WriteString("_No holdings recorded._\n")
	}

	return sb.String()
}

// FormatHoldings renders stored holdings as a markdown table.
func FormatHoldings(holdings []models.Holding) string {
	if len(holdings) == 0 {
		return "_No holdings recorded._\n"
	}

	var sb strings.Builder
	sb.WriteString("| ID | Holding | Type | Mode | Amount | Acquired | Units | Price | Installments |\n")
	sb.WriteString("|----|---------|------|------|--------|----------|-------|-------|--------------|\n")
	for _, h := range holdings {
		units, price := "-", "-"
		if h.UnitsOwned > 0 {
			units = fmt.Sprintf("%.4f", h.UnitsOwned)
		}
		if h.AcquisitionPrice > 0 {
			price = common.FormatMoney(h.AcquisitionPrice)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %d |\n",
			h.ID, escapeCell(h.Identifier), assetLabel(h.AssetClass), modeName(h.Mode),
			common.FormatMoney(h.AmountInvested), h.AcquisitionDate.Format(models.DateLayout),
			units, price, len(h.Transactions)))
	}
	return sb.String()
}

func assetLabel(c models.AssetClass) string {
	if c == models.AssetClassFund {
		return "Fund"
	}
	return "Equity"
}

func modeName(m models.InvestmentMode) string {
	if m == models.ModeSystematicPlan {
		return "SIP"
	}
	return "Lump sum"
}

func modeLabel(d models.HoldingResult) string {
	if d.Mode == models.ModeSystematicPlan && d.Installments > 0 {
		return fmt.Sprintf("SIP (%d)", d.Installments)
	}
	return modeName(d.Mode)
}

// escapeCell keeps pipes in names from breaking table rows.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
