package valuation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fintrack/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveUnits(t *testing.T) {
	tests := []struct {
		name    string
		holding models.Holding
		units   float64
		quality models.DataQuality
		reason  string
	}{
		{
			name:    "explicit units win over price",
			holding: models.Holding{Mode: models.ModeLumpSum, AmountInvested: 10000, UnitsOwned: 123.456, AcquisitionPrice: 50},
			units:   123.456,
			quality: models.DataQualityVerified,
		},
		{
			name:    "amount over acquisition price",
			holding: models.Holding{Mode: models.ModeLumpSum, AmountInvested: 10000, AcquisitionPrice: 40},
			units:   250,
			quality: models.DataQualityEstimated,
		},
		{
			name:    "lump sum without units or price",
			holding: models.Holding{Mode: models.ModeLumpSum, AmountInvested: 10000},
			quality: models.DataQualityIncomplete,
			reason:  "missing units or price",
		},
		{
			name: "plan sums transaction units",
			holding: models.Holding{Mode: models.ModeSystematicPlan, AmountInvested: 1000, Transactions: []models.Transaction{
				{Date: day(2024, 1, 5), Amount: 1000, Units: 10.5},
				{Date: day(2024, 2, 5), Amount: 1000, Units: 9.5},
			}},
			units:   20,
			quality: models.DataQualityVerified,
		},
		{
			name:    "plan without transactions ignores explicit units",
			holding: models.Holding{Mode: models.ModeSystematicPlan, AmountInvested: 1000, UnitsOwned: 50},
			quality: models.DataQualityIncomplete,
			reason:  "SIP requires transaction-level data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, quality, err := ResolveUnits(&tt.holding)
			assert.Equal(t, tt.quality, quality)
			if tt.reason != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrUnresolved))
				assert.Contains(t, err.Error(), tt.reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.units, units)
		})
	}
}

func TestTotalInvested(t *testing.T) {
	lump := &models.Holding{Mode: models.ModeLumpSum, AmountInvested: 25000}
	assert.Equal(t, 25000.0, TotalInvested(lump))

	plan := &models.Holding{Mode: models.ModeSystematicPlan, AmountInvested: 2000, Transactions: []models.Transaction{
		{Date: day(2024, 1, 1), Amount: 2500, Units: 10},
		{Date: day(2024, 2, 1), Units: 9},
	}}
	assert.Equal(t, 4500.0, TotalInvested(plan))
}

func TestValue(t *testing.T) {
	f := Value(10000, 100, 121)
	assert.InDelta(t, 12100, f.CurrentValue, 1e-9)
	assert.InDelta(t, 2100, f.GainLoss, 1e-9)
	assert.InDelta(t, 21, f.PercentageReturn, 1e-9)
}

func TestValue_ZeroInvested(t *testing.T) {
	f := Value(0, 10, 5)
	assert.Equal(t, 50.0, f.CurrentValue)
	assert.Equal(t, 0.0, f.PercentageReturn)
}

func TestCAGR_TwoYears(t *testing.T) {
	today := day(2024, 6, 1)
	cagr, err := CAGR(10000, 12100, today.AddDate(-2, 0, 0), today)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, cagr, 0.1)
}

func TestCAGR_NotApplicable(t *testing.T) {
	today := day(2024, 6, 1)

	_, err := CAGR(10000, 11000, today, today)
	assert.True(t, errors.Is(err, models.ErrNotApplicable))

	_, err = CAGR(10000, 11000, today.AddDate(0, 0, 1), today)
	assert.True(t, errors.Is(err, models.ErrNotApplicable))

	_, err = CAGR(0, 11000, today.AddDate(-1, 0, 0), today)
	assert.True(t, errors.Is(err, models.ErrNotApplicable))
}
