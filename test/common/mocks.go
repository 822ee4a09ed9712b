// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
)

// Date builds a UTC calendar date
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MockEODHDClient implements EODHDClient for testing
type MockEODHDClient struct {
	mu sync.Mutex

	Bars        map[string][]models.EODBar
	Instruments map[string]*models.Instrument
	EODErr      error
	Delay       time.Duration

	GetEODCalls        int
	GetInstrumentCalls int
}

// NewMockEODHDClient creates a mock EODHD client
func NewMockEODHDClient() *MockEODHDClient {
	return &MockEODHDClient{
		Bars:        make(map[string][]models.EODBar),
		Instruments: make(map[string]*models.Instrument),
	}
}

// AddBar records a close for ticker on date
func (m *MockEODHDClient) AddBar(ticker string, date time.Time, close float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bars[ticker] = append(m.Bars[ticker], models.EODBar{Date: date, Close: close, AdjClose: close})
}

func (m *MockEODHDClient) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResponse, error) {
	m.mu.Lock()
	m.GetEODCalls++
	bars := append([]models.EODBar(nil), m.Bars[ticker]...)
	delay, err := m.Delay, m.EODErr
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	params := &interfaces.EODParams{}
	for _, opt := range opts {
		opt(params)
	}

	var out []models.EODBar
	for _, b := range bars {
		if !params.From.IsZero() && b.Date.Before(params.From) {
			continue
		}
		if !params.To.IsZero() && b.Date.After(params.To) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return &models.EODResponse{Data: out}, nil
}

func (m *MockEODHDClient) GetInstrument(ctx context.Context, ticker string) (*models.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetInstrumentCalls++
	if inst, ok := m.Instruments[ticker]; ok {
		return inst, nil
	}
	return nil, fmt.Errorf("instrument %s not found", ticker)
}

// MockFundClient implements FundClient for testing
type MockFundClient struct {
	mu sync.Mutex

	Schemes    []models.Scheme
	NAVs       map[string]map[string]float64 // code -> YYYY-MM-DD -> nav
	Latest     map[string]float64
	SchemesErr error
	HistoryErr error
	Delay      time.Duration

	GetSchemesCalls    int
	GetNAVHistoryCalls int
	GetLatestNAVCalls  int
}

// NewMockFundClient creates a mock fund client
func NewMockFundClient() *MockFundClient {
	return &MockFundClient{
		NAVs:   make(map[string]map[string]float64),
		Latest: make(map[string]float64),
	}
}

// AddNAV records a NAV for code on date
func (m *MockFundClient) AddNAV(code string, date time.Time, nav float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NAVs[code] == nil {
		m.NAVs[code] = make(map[string]float64)
	}
	m.NAVs[code][date.Format(models.DateLayout)] = nav
}

func (m *MockFundClient) GetSchemes(ctx context.Context) ([]models.Scheme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetSchemesCalls++
	if m.SchemesErr != nil {
		return nil, m.SchemesErr
	}
	return append([]models.Scheme(nil), m.Schemes...), nil
}

func (m *MockFundClient) GetNAVHistory(ctx context.Context, code string, from, to time.Time) ([]models.NAVPoint, error) {
	m.mu.Lock()
	m.GetNAVHistoryCalls++
	delay, err := m.Delay, m.HistoryErr
	navs := m.NAVs[code]
	var out []models.NAVPoint
	for d := models.Day(from); !d.After(models.Day(to)); d = d.AddDate(0, 0, 1) {
		if nav, ok := navs[d.Format(models.DateLayout)]; ok {
			out = append(out, models.NAVPoint{Date: d, NAV: nav})
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MockFundClient) GetLatestNAV(ctx context.Context, code string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetLatestNAVCalls++
	if nav, ok := m.Latest[code]; ok {
		return nav, nil
	}
	return 0, fmt.Errorf("no latest NAV for %s", code)
}

// MockPriceSource implements PriceSource with fixed prices
type MockPriceSource struct {
	mu sync.Mutex

	Codes   map[string]string             // name -> code
	Prices  map[string]map[string]float64 // code -> YYYY-MM-DD -> price
	Current map[string]float64            // code -> price

	PriceAtCalls int
}

// NewMockPriceSource creates an empty mock price source
func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{
		Codes:   make(map[string]string),
		Prices:  make(map[string]map[string]float64),
		Current: make(map[string]float64),
	}
}

// SetPrice records a historical price for code on date
func (m *MockPriceSource) SetPrice(code string, date time.Time, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prices[code] == nil {
		m.Prices[code] = make(map[string]float64)
	}
	m.Prices[code][date.Format(models.DateLayout)] = price
}

func (m *MockPriceSource) ResolveIdentifier(ctx context.Context, class models.AssetClass, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code, ok := m.Codes[name]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %s", models.ErrNotFound, name)
}

func (m *MockPriceSource) PriceAt(ctx context.Context, class models.AssetClass, code string, date time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriceAtCalls++
	if p, ok := m.Prices[code][date.Format(models.DateLayout)]; ok && p > 0 {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %s on %s", models.ErrUnavailable, code, date.Format(models.DateLayout))
}

func (m *MockPriceSource) CurrentPrice(ctx context.Context, class models.AssetClass, code string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Current[code]; ok && p > 0 {
		return p, nil
	}
	return 0, fmt.Errorf("%w: current price for %s", models.ErrUnavailable, code)
}

// MemoryStore implements PortfolioStore in memory
type MemoryStore struct {
	mu       sync.Mutex
	Holdings []models.Holding
	LoadErr  error
	Saves    int
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return append([]models.Holding(nil), s.Holdings...), nil
}

func (s *MemoryStore) Save(ctx context.Context, holdings []models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Holdings = append([]models.Holding(nil), holdings...)
	s.Saves++
	return nil
}

var (
	_ interfaces.EODHDClient    = (*MockEODHDClient)(nil)
	_ interfaces.FundClient     = (*MockFundClient)(nil)
	_ interfaces.PriceSource    = (*MockPriceSource)(nil)
	_ interfaces.PortfolioStore = (*MemoryStore)(nil)
)
