package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/server"
	"github.com/bobmcallan/fintrack/internal/services/portfolio"
	"github.com/bobmcallan/fintrack/internal/services/pricesource"
	"github.com/bobmcallan/fintrack/internal/storage"
	tcommon "github.com/bobmcallan/fintrack/test/common"
)

const axisBluechip = "Axis Bluechip Fund - Direct Plan - Growth"

type flowEnv struct {
	handler http.Handler
	config  *common.PortfolioConfig
	logger  *common.Logger
}

// newFlowEnv wires the real store, price source, portfolio service and HTTP
// server around mocked market data providers.
func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := common.NewSilentLogger()
	today := tcommon.Date(2024, 6, 1)
	clock := func() time.Time { return today }

	funds := tcommon.NewMockFundClient()
	funds.Schemes = []models.Scheme{
		{Code: "119551", Name: axisBluechip},
		{Code: "120503", Name: "Parag Parikh Flexi Cap Fund - Direct Plan - Growth"},
	}
	funds.AddNAV("119551", tcommon.Date(2024, 3, 5), 50)
	funds.AddNAV("119551", tcommon.Date(2024, 4, 5), 40)
	funds.AddNAV("119551", tcommon.Date(2024, 5, 5), 50)
	funds.Latest["119551"] = 55

	equities := tcommon.NewMockEODHDClient()
	equities.Instruments["INFY.NSE"] = &models.Instrument{Code: "INFY", Exchange: "NSE", CurrencyCode: "INR"}
	equities.AddBar("INFY.NSE", tcommon.Date(2023, 6, 1), 1250)
	equities.AddBar("INFY.NSE", tcommon.Date(2024, 5, 31), 1500)

	cfg := &common.PortfolioConfig{Path: filepath.Join(t.TempDir(), "portfolio.json"), Versions: 2}
	store, err := storage.NewFileStore(logger, cfg)
	require.NoError(t, err)

	prices := pricesource.NewService(funds, equities, logger, pricesource.WithClock(clock))
	svc := portfolio.NewService(store, prices, logger)
	svc.SetClock(clock)

	return &flowEnv{
		handler: server.New(common.NewDefaultConfig(), logger, svc, prices).Handler(),
		config:  cfg,
		logger:  logger,
	}
}

func (e *flowEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestPortfolioFlow(t *testing.T) {
	env := newFlowEnv(t)

	// Lump sum entered without units or price picks up the acquisition close
	rec := env.do(t, http.MethodPost, "/api/holdings", `{
		"asset_class": "equity",
		"identifier": "INFY.NSE",
		"investment_mode": "lump_sum",
		"amount_invested": "100000",
		"acquisition_date": "2023-06-01"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var equity struct {
		ID               string  `json:"id"`
		AcquisitionPrice float64 `json:"acquisition_price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &equity))
	assert.Equal(t, 1250.0, equity.AcquisitionPrice)

	rec = env.do(t, http.MethodPost, "/api/holdings", `{
		"asset_class": "fund",
		"identifier": "axis bluechip fund - direct plan - growth",
		"investment_mode": "systematic_plan",
		"amount_invested": 5000,
		"acquisition_date": "2024-03-05"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fund struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fund))

	// Three monthly installments fall on or before today
	rec = env.do(t, http.MethodPost, "/api/holdings/"+fund.ID+"/fill", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var filled struct {
		Holding struct {
			Transactions []struct {
				Date  string  `json:"date"`
				Units float64 `json:"units"`
			} `json:"transactions"`
		} `json:"holding"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filled))
	assert.Empty(t, filled.Warning)
	require.Len(t, filled.Holding.Transactions, 3)
	assert.Equal(t, "2024-04-05", filled.Holding.Transactions[1].Date)
	assert.InDelta(t, 125.0, filled.Holding.Transactions[1].Units, 1e-9)

	rec = env.do(t, http.MethodPost, "/api/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var analysis models.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))

	require.Len(t, analysis.Details, 2)
	byID := map[string]models.HoldingResult{}
	for _, d := range analysis.Details {
		byID[d.ID] = d
	}

	eq := byID[equity.ID]
	assert.Empty(t, eq.Error)
	assert.Equal(t, models.DataQualityEstimated, eq.DataQuality)
	assert.InDelta(t, 80.0, eq.Units, 1e-9)
	assert.InDelta(t, 120000.0, eq.CurrentValue, 0.01)
	assert.NotNil(t, eq.CAGR)
	assert.Nil(t, eq.XIRR)

	sip := byID[fund.ID]
	assert.Empty(t, sip.Error)
	assert.Equal(t, models.DataQualityVerified, sip.DataQuality)
	assert.InDelta(t, 15000.0, sip.TotalInvested, 0.01)
	assert.InDelta(t, 17875.0, sip.CurrentValue, 0.01)
	assert.Nil(t, sip.CAGR)
	assert.NotNil(t, sip.XIRR)

	assert.InDelta(t, 115000.0, analysis.Summary.TotalInvested, 0.01)
	assert.InDelta(t, 137875.0, analysis.Summary.TotalCurrentValue, 0.01)
	assert.InDelta(t, 22875.0, analysis.Summary.TotalGainLoss, 0.01)
	assert.Equal(t, 2, analysis.Summary.HoldingsValued)
	require.NotNil(t, analysis.Summary.XIRR)
	assert.Greater(t, *analysis.Summary.XIRR, 0.0)

	// Everything above survived on disk
	reopened, err := storage.NewFileStore(env.logger, env.config)
	require.NoError(t, err)
	holdings, err := reopened.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	for _, h := range holdings {
		if h.ID == fund.ID {
			assert.Len(t, h.Transactions, 3)
		}
	}

	rec = env.do(t, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "INFY.NSE")

	rec = env.do(t, http.MethodDelete, "/api/holdings/"+equity.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/holdings/"+equity.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortfolioFlow_UnknownFundRejected(t *testing.T) {
	env := newFlowEnv(t)

	rec := env.do(t, http.MethodPost, "/api/holdings", `{
		"asset_class": "fund",
		"identifier": "No Such Fund",
		"investment_mode": "lump_sum",
		"amount_invested": 1000,
		"acquisition_date": "2024-01-02",
		"units_owned": 10
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"holdings":[]}`, rec.Body.String())
}

func TestPortfolioFlow_FundSearch(t *testing.T) {
	env := newFlowEnv(t)

	rec := env.do(t, http.MethodGet, "/api/funds?q=flexi+direct", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Funds []models.Scheme `json:"funds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Funds, 1)
	assert.Equal(t, "120503", resp.Funds[0].Code)
}
