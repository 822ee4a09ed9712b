package pricesource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/models"
	tcommon "github.com/bobmcallan/fintrack/test/common"
)

func newTestService(funds *tcommon.MockFundClient, eq *tcommon.MockEODHDClient, opts ...Option) *Service {
	return NewService(funds, eq, common.NewSilentLogger(), opts...)
}

func TestPriceAt_ExactDate(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.AddNAV("119551", tcommon.Date(2024, 3, 15), 42.5)
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	price, err := svc.PriceAt(context.Background(), models.AssetClassFund, "119551", tcommon.Date(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, 42.5, price)
	assert.Equal(t, 1, funds.GetNAVHistoryCalls)
}

func TestPriceAt_FallbackStopsAtFirstHit(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	// Requested Sunday 2024-03-17; the nearest quote is three days earlier.
	eq.AddBar("INFY.NSE", tcommon.Date(2024, 3, 14), 1600)
	eq.AddBar("INFY.NSE", tcommon.Date(2024, 3, 10), 1500)
	svc := newTestService(tcommon.NewMockFundClient(), eq)

	price, err := svc.PriceAt(context.Background(), models.AssetClassEquity, "INFY.NSE", tcommon.Date(2024, 3, 17))
	require.NoError(t, err)
	assert.Equal(t, 1600.0, price)
	// offsets 0, 1, 2, 3
	assert.Equal(t, 4, eq.GetEODCalls)
}

func TestPriceAt_SkipsGapsBetweenOffsets(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	// 4 days back is not a probed offset; 5 is.
	eq.AddBar("TCS.NSE", tcommon.Date(2024, 3, 16), 3000)
	eq.AddBar("TCS.NSE", tcommon.Date(2024, 3, 15), 2900)
	svc := newTestService(tcommon.NewMockFundClient(), eq)

	price, err := svc.PriceAt(context.Background(), models.AssetClassEquity, "TCS.NSE", tcommon.Date(2024, 3, 20))
	require.NoError(t, err)
	assert.Equal(t, 2900.0, price)
	assert.Equal(t, 5, eq.GetEODCalls)
}

func TestPriceAt_NeverLooksForward(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.AddNAV("100", tcommon.Date(2024, 3, 16), 10)
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	_, err := svc.PriceAt(context.Background(), models.AssetClassFund, "100", tcommon.Date(2024, 3, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnavailable))
	assert.Equal(t, len(FallbackOffsets), funds.GetNAVHistoryCalls)
}

func TestPriceAt_IgnoresZeroPrices(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.AddNAV("100", tcommon.Date(2024, 3, 15), 0)
	funds.AddNAV("100", tcommon.Date(2024, 3, 14), 11)
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	price, err := svc.PriceAt(context.Background(), models.AssetClassFund, "100", tcommon.Date(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, 11.0, price)
}

func TestPriceAt_ProviderErrorsBecomeUnavailable(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.HistoryErr = errors.New("connection reset")
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	_, err := svc.PriceAt(context.Background(), models.AssetClassFund, "100", tcommon.Date(2024, 3, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnavailable))
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestPriceAt_TimeoutIsUnavailable(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	eq.AddBar("SLOW.NSE", tcommon.Date(2024, 3, 15), 100)
	eq.Delay = 200 * time.Millisecond
	svc := newTestService(tcommon.NewMockFundClient(), eq, WithCallTimeout(5*time.Millisecond))

	_, err := svc.PriceAt(context.Background(), models.AssetClassEquity, "SLOW.NSE", tcommon.Date(2024, 3, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnavailable))
}

func TestCurrentPrice_EquityUsesLatestBar(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	eq.AddBar("INFY.NSE", tcommon.Date(2024, 6, 7), 1510)
	eq.AddBar("INFY.NSE", tcommon.Date(2024, 6, 6), 1490)
	eq.AddBar("INFY.NSE", tcommon.Date(2024, 5, 1), 1400) // outside lookback
	now := func() time.Time { return time.Date(2024, 6, 9, 15, 30, 0, 0, time.UTC) }
	svc := newTestService(tcommon.NewMockFundClient(), eq, WithClock(now))

	price, err := svc.CurrentPrice(context.Background(), models.AssetClassEquity, "INFY.NSE")
	require.NoError(t, err)
	assert.Equal(t, 1510.0, price)
}

func TestCurrentPrice_EquityNoRecentBars(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	eq.AddBar("OLD.NSE", tcommon.Date(2024, 5, 1), 1400)
	now := func() time.Time { return tcommon.Date(2024, 6, 9) }
	svc := newTestService(tcommon.NewMockFundClient(), eq, WithClock(now))

	_, err := svc.CurrentPrice(context.Background(), models.AssetClassEquity, "OLD.NSE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnavailable))
}

func TestCurrentPrice_Fund(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.Latest["119551"] = 55.25
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	price, err := svc.CurrentPrice(context.Background(), models.AssetClassFund, "119551")
	require.NoError(t, err)
	assert.Equal(t, 55.25, price)

	_, err = svc.CurrentPrice(context.Background(), models.AssetClassFund, "999")
	assert.True(t, errors.Is(err, models.ErrUnavailable))
}

func TestResolveIdentifier_Fund(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.Schemes = []models.Scheme{
		{Code: "119551", Name: "Axis Bluechip Fund - Direct Plan - Growth"},
		{Code: "120503", Name: "Parag Parikh Flexi Cap Fund - Direct Plan - Growth"},
	}
	svc := newTestService(funds, tcommon.NewMockEODHDClient())
	ctx := context.Background()

	code, err := svc.ResolveIdentifier(ctx, models.AssetClassFund, "  axis bluechip fund - direct plan - GROWTH ")
	require.NoError(t, err)
	assert.Equal(t, "119551", code)

	code, err = svc.ResolveIdentifier(ctx, models.AssetClassFund, "120503")
	require.NoError(t, err)
	assert.Equal(t, "120503", code)

	_, err = svc.ResolveIdentifier(ctx, models.AssetClassFund, "Unknown Fund")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	// catalog fetched once
	assert.Equal(t, 1, funds.GetSchemesCalls)
}

func TestResolveIdentifier_FundCatalogError(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.SchemesErr = errors.New("503")
	svc := newTestService(funds, tcommon.NewMockEODHDClient())

	_, err := svc.ResolveIdentifier(context.Background(), models.AssetClassFund, "Axis")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestResolveIdentifier_Equity(t *testing.T) {
	eq := tcommon.NewMockEODHDClient()
	eq.Instruments["INFY.NSE"] = &models.Instrument{Code: "INFY", Name: "Infosys", CurrencyCode: "INR"}
	eq.Instruments["NOCCY.NSE"] = &models.Instrument{Code: "NOCCY"}
	svc := newTestService(tcommon.NewMockFundClient(), eq)
	ctx := context.Background()

	code, err := svc.ResolveIdentifier(ctx, models.AssetClassEquity, "INFY.NSE")
	require.NoError(t, err)
	assert.Equal(t, "INFY.NSE", code)

	_, err = svc.ResolveIdentifier(ctx, models.AssetClassEquity, "NOCCY.NSE")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.ResolveIdentifier(ctx, models.AssetClassEquity, "MISSING.NSE")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.ResolveIdentifier(ctx, models.AssetClassEquity, "   ")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCatalog_SearchAndInvalidate(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	funds.Schemes = []models.Scheme{
		{Code: "1", Name: "HDFC Index Fund Nifty 50 Plan"},
		{Code: "2", Name: "UTI Nifty 50 Index Fund"},
		{Code: "3", Name: "HDFC Liquid Fund"},
	}
	svc := newTestService(funds, tcommon.NewMockEODHDClient())
	ctx := context.Background()

	got, err := svc.SearchFunds(ctx, "nifty hdfc", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Code)

	got, err = svc.SearchFunds(ctx, "fund", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	names, err := svc.FundNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 3)
	assert.Equal(t, 1, funds.GetSchemesCalls)

	svc.InvalidateCatalog()
	_, err = svc.FundNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, funds.GetSchemesCalls)
}

func TestCatalog_EmptyIsNotMemoised(t *testing.T) {
	funds := tcommon.NewMockFundClient()
	svc := newTestService(funds, tcommon.NewMockEODHDClient())
	ctx := context.Background()

	_, err := svc.FundNames(ctx)
	require.Error(t, err)

	funds.Schemes = []models.Scheme{{Code: "1", Name: "A Fund"}}
	names, err := svc.FundNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A Fund"}, names)
}
