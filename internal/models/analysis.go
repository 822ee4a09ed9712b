package models

// DataQuality labels the provenance of a holding's unit count.
type DataQuality string

const (
	// DataQualityVerified: units were supplied by the user or summed from transactions.
	DataQualityVerified DataQuality = "Verified"
	// DataQualityEstimated: units were derived from a fetched or typed price.
	DataQualityEstimated DataQuality = "Estimated"
	// DataQualityIncomplete: the holding could not be valued.
	DataQualityIncomplete DataQuality = "Incomplete"
)

// HoldingResult is the enriched per-holding record of an analysis.
// Return figures are percentages; a nil pointer means not applicable.
type HoldingResult struct {
	ID               string         `json:"id"`
	AssetClass       AssetClass     `json:"asset_class"`
	Identifier       string         `json:"identifier"`
	Mode             InvestmentMode `json:"investment_mode"`
	AmountInvested   float64        `json:"amount_invested"`
	AcquisitionDate  string         `json:"acquisition_date"`
	Installments     int            `json:"installments,omitempty"`
	TotalInvested    float64        `json:"total_invested"`
	Units            float64        `json:"units,omitempty"`
	AveragePrice     float64        `json:"average_price,omitempty"`
	CurrentPrice     float64        `json:"current_price,omitempty"`
	CurrentValue     float64        `json:"current_value"`
	GainLoss         float64        `json:"gain_loss"`
	PercentageReturn float64        `json:"percentage_return"`
	CAGR             *float64       `json:"cagr"`
	XIRR             *float64       `json:"xirr"`
	DataQuality      DataQuality    `json:"data_quality"`
	Error            string         `json:"error,omitempty"`
}

// Valid reports whether the result takes part in portfolio totals.
func (r *HoldingResult) Valid() bool {
	return r.Error == ""
}

// PortfolioSummary aggregates the valid holdings of an analysis.
type PortfolioSummary struct {
	AsOf              string   `json:"as_of"`
	TotalInvested     float64  `json:"total_invested"`
	TotalCurrentValue float64  `json:"total_current_value"`
	TotalGainLoss     float64  `json:"total_gain_loss"`
	PercentageReturn  float64  `json:"percentage_return"`
	XIRR              *float64 `json:"xirr"`
	HoldingsValued    int      `json:"holdings_valued"`
	HoldingsExcluded  int      `json:"holdings_excluded"`
}

// Analysis is the full output of one analysis run.
type Analysis struct {
	Details []HoldingResult  `json:"details"`
	Summary PortfolioSummary `json:"summary"`
}
