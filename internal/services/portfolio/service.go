package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/services/cashflow"
)

// Service implements PortfolioService
type Service struct {
	store    interfaces.PortfolioStore
	prices   interfaces.PriceSource
	analyzer *Analyzer
	logger   *common.Logger
	now      func() time.Time
	newID    func() string

	// serialises load-modify-save cycles
	mu sync.Mutex
}

// NewService creates a new portfolio service
func NewService(store interfaces.PortfolioStore, prices interfaces.PriceSource, logger *common.Logger) *Service {
	return &Service{
		store:    store,
		prices:   prices,
		analyzer: NewAnalyzer(prices, logger),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetClock replaces the wall clock used for analysis and plan filling
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.analyzer.SetClock(now)
}

// ListHoldings returns the stored holdings in entry order
func (s *Service) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	holdings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return holdings, nil
}

// AddHolding validates input, confirms the identifier with the price source
// and appends the holding to the store. A lump sum entered without units or
// price is given its acquisition-date price when one is available.
func (s *Service) AddHolding(ctx context.Context, input interfaces.HoldingInput) (*models.Holding, error) {
	h := models.Holding{
		ID:               s.newID(),
		AssetClass:       input.AssetClass,
		Identifier:       strings.TrimSpace(input.Identifier),
		Mode:             input.Mode,
		AmountInvested:   input.AmountInvested,
		AcquisitionDate:  models.Day(input.AcquisitionDate),
		UnitsOwned:       input.UnitsOwned,
		AcquisitionPrice: input.AcquisitionPrice,
		Transactions:     normalizeTransactions(input.Transactions),
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.AcquisitionDate.After(models.Day(s.now())) {
		return nil, fmt.Errorf("%w: acquisition date is in the future", models.ErrInvalidHolding)
	}

	code, err := s.prices.ResolveIdentifier(ctx, h.AssetClass, h.Identifier)
	if err != nil {
		return nil, err
	}

	if !h.IsPlan() && h.UnitsOwned <= 0 && h.AcquisitionPrice <= 0 {
		price, err := s.prices.PriceAt(ctx, h.AssetClass, code, h.AcquisitionDate)
		if err != nil {
			s.logger.Warn().Err(err).Str("holding", h.Identifier).Msg("Acquisition price could not be fetched; enter units or price manually")
		} else {
			h.AcquisitionPrice = price
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	holdings = append(holdings, h)
	if err := s.store.Save(ctx, holdings); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.logger.Info().
		Str("id", h.ID).
		Str("holding", h.Identifier).
		Str("mode", string(h.Mode)).
		Msg("Holding added")
	return &h, nil
}

// RemoveHolding deletes a holding by ID
func (s *Service) RemoveHolding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load portfolio: %w", err)
	}

	idx := indexOf(holdings, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", models.ErrHoldingNotFound, id)
	}
	removed := holdings[idx]
	holdings = append(holdings[:idx], holdings[idx+1:]...)

	if err := s.store.Save(ctx, holdings); err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	s.logger.Info().Str("id", id).Str("holding", removed.Identifier).Msg("Holding removed")
	return nil
}

// FillPlan records the monthly installments of a systematic plan from its
// start date to today, pricing each at the NAV on its date. A month that
// already has a recorded installment, on any day, is skipped. Filling stops at the first date without a NAV;
// the installments before it are saved and the gap is returned as an error
// wrapping ErrUnavailable.
func (s *Service) FillPlan(ctx context.Context, id string) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	idx := indexOf(holdings, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrHoldingNotFound, id)
	}
	h := holdings[idx]
	if !h.IsPlan() {
		return nil, fmt.Errorf("%w: only systematic plans have installments", models.ErrInvalidHolding)
	}

	code, err := s.prices.ResolveIdentifier(ctx, h.AssetClass, h.Identifier)
	if err != nil {
		return nil, err
	}

	recorded := make(map[string]bool, len(h.Transactions))
	for _, tx := range h.Transactions {
		recorded[tx.Date.Format(monthKey)] = true
	}

	var gap error
	added := 0
	for _, date := range cashflow.MonthlySchedule(h.AcquisitionDate, s.now()) {
		if recorded[date.Format(monthKey)] {
			continue
		}
		nav, err := s.prices.PriceAt(ctx, h.AssetClass, code, date)
		if err != nil {
			gap = fmt.Errorf("installment on %s: %w", date.Format(models.DateLayout), err)
			break
		}
		h.Transactions = append(h.Transactions, models.Transaction{
			Date:   date,
			Amount: h.AmountInvested,
			Units:  h.AmountInvested / nav,
		})
		added++
	}
	h.Transactions = normalizeTransactions(h.Transactions)

	if added > 0 {
		holdings[idx] = h
		if err := s.store.Save(ctx, holdings); err != nil {
			return nil, fmt.Errorf("failed to save portfolio: %w", err)
		}
	}

	s.logger.Info().
		Str("id", id).
		Str("holding", h.Identifier).
		Int("added", added).
		Int("installments", len(h.Transactions)).
		Msg("Plan installments filled")

	if gap != nil {
		return &h, gap
	}
	return &h, nil
}

// Analyze loads the stored portfolio and values it. A store failure is the
// only error; per-holding failures are annotations on the result.
func (s *Service) Analyze(ctx context.Context) (*models.Analysis, error) {
	holdings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return s.analyzer.Analyze(ctx, holdings), nil
}

// IsNotFound reports whether err means a holding or identifier does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrHoldingNotFound) || errors.Is(err, models.ErrNotFound)
}

// monthKey identifies an installment month; plans pay once per month.
const monthKey = "2006-01"

func indexOf(holdings []models.Holding, id string) int {
	for i := range holdings {
		if holdings[i].ID == id {
			return i
		}
	}
	return -1
}

// normalizeTransactions truncates dates to the day and orders them.
func normalizeTransactions(txs []models.Transaction) []models.Transaction {
	if len(txs) == 0 {
		return nil
	}
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		tx.Date = models.Day(tx.Date)
		out[i] = tx
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

var _ interfaces.PortfolioService = (*Service)(nil)
