// Package pricesource provides a uniform price lookup over the fund NAV and
// equity EOD providers.
package pricesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
)

// FallbackOffsets are the day offsets probed, in order, when no quote exists
// for a requested date. Each offset is one provider call.
var FallbackOffsets = []int{0, 1, 2, 3, 5, 7, 10, 15, 30, 45, 60}

// CurrentLookbackDays is the window of EOD bars searched for an equity's
// current price, enough to bridge weekends and exchange holidays.
const CurrentLookbackDays = 10

// DefaultCallTimeout bounds each provider call.
const DefaultCallTimeout = 10 * time.Second

// Service implements PriceSource and FundCatalog.
type Service struct {
	funds       interfaces.FundClient
	equities    interfaces.EODHDClient
	catalog     *catalog
	callTimeout time.Duration
	logger      *common.Logger
	now         func() time.Time // injectable clock for testing
}

// Option configures the service
type Option func(*Service)

// WithCallTimeout sets the per provider call timeout
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a price source over the given provider clients.
func NewService(funds interfaces.FundClient, equities interfaces.EODHDClient, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		funds:       funds,
		equities:    equities,
		callTimeout: DefaultCallTimeout,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog = newCatalog(funds, s.callTimeout, logger)
	return s
}

// ResolveIdentifier maps a fund name (or scheme code) or an equity ticker to
// its provider code. Every failure, including provider errors, is ErrNotFound.
func (s *Service) ResolveIdentifier(ctx context.Context, class models.AssetClass, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty identifier", models.ErrNotFound)
	}

	switch class {
	case models.AssetClassFund:
		code, err := s.catalog.lookup(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Str("fund", name).Msg("Fund scheme lookup failed")
			return "", fmt.Errorf("%w: fund %q", models.ErrNotFound, name)
		}
		return code, nil

	case models.AssetClassEquity:
		ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()

		inst, err := s.equities.GetInstrument(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", name).Msg("Equity validation failed")
			return "", fmt.Errorf("%w: ticker %q", models.ErrNotFound, name)
		}
		if inst == nil || strings.TrimSpace(inst.CurrencyCode) == "" {
			s.logger.Warn().Str("ticker", name).Msg("Equity has no trading currency")
			return "", fmt.Errorf("%w: ticker %q has no trading currency", models.ErrNotFound, name)
		}
		s.logger.Info().Str("ticker", name).Str("currency", inst.CurrencyCode).Msg("Equity validated")
		return name, nil
	}

	return "", fmt.Errorf("%w: unknown asset class %q", models.ErrNotFound, class)
}

// PriceAt returns the price on date, or on the nearest earlier date with a
// positive quote within the fallback window.
func (s *Service) PriceAt(ctx context.Context, class models.AssetClass, code string, date time.Time) (float64, error) {
	requested := models.Day(date)

	for _, offset := range FallbackOffsets {
		probe := requested.AddDate(0, 0, -offset)

		price, err := s.quoteOn(ctx, class, code, probe)
		if err != nil {
			s.logger.Debug().Err(err).Str("code", code).Str("date", probe.Format(models.DateLayout)).Msg("No quote for probe date")
			continue
		}
		if price > 0 {
			if offset > 0 {
				s.logger.Info().
					Str("code", code).
					Str("requested", requested.Format(models.DateLayout)).
					Str("used", probe.Format(models.DateLayout)).
					Msg("Used fallback price date")
			}
			return price, nil
		}
	}

	s.logger.Warn().Str("code", code).Str("date", requested.Format(models.DateLayout)).Msg("No price within fallback window")
	return 0, fmt.Errorf("%w: %s on %s", models.ErrUnavailable, code, requested.Format(models.DateLayout))
}

// quoteOn performs a single bounded provider call for one calendar date.
// A missing quote is reported as price 0 with no error.
func (s *Service) quoteOn(ctx context.Context, class models.AssetClass, code string, day time.Time) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	switch class {
	case models.AssetClassFund:
		points, err := s.funds.GetNAVHistory(ctx, code, day, day)
		if err != nil {
			return 0, err
		}
		for _, p := range points {
			if models.Day(p.Date).Equal(day) && p.NAV > 0 {
				return p.NAV, nil
			}
		}
		return 0, nil

	case models.AssetClassEquity:
		resp, err := s.equities.GetEOD(ctx, code, interfaces.WithDateRange(day, day))
		if err != nil {
			return 0, err
		}
		if resp == nil {
			return 0, nil
		}
		for _, bar := range resp.Data {
			if models.Day(bar.Date).Equal(day) && bar.Close > 0 {
				return bar.Close, nil
			}
		}
		return 0, nil
	}

	return 0, fmt.Errorf("unknown asset class %q", class)
}

// CurrentPrice returns the latest available price. Funds use the latest
// published NAV; equities use the chronologically last positive close within
// CurrentLookbackDays.
func (s *Service) CurrentPrice(ctx context.Context, class models.AssetClass, code string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	switch class {
	case models.AssetClassFund:
		nav, err := s.funds.GetLatestNAV(ctx, code)
		if err != nil || nav <= 0 {
			s.logger.Warn().Err(err).Str("scheme", code).Msg("Current NAV unavailable")
			return 0, fmt.Errorf("%w: current NAV for %s", models.ErrUnavailable, code)
		}
		return nav, nil

	case models.AssetClassEquity:
		end := models.Day(s.now())
		start := end.AddDate(0, 0, -CurrentLookbackDays)

		resp, err := s.equities.GetEOD(ctx, code, interfaces.WithDateRange(start, end))
		if err != nil || resp == nil {
			s.logger.Warn().Err(err).Str("ticker", code).Msg("Current price unavailable")
			return 0, fmt.Errorf("%w: current price for %s", models.ErrUnavailable, code)
		}

		var latest models.EODBar
		for _, bar := range resp.Data {
			if bar.Close > 0 && !bar.Date.Before(latest.Date) {
				latest = bar
			}
		}
		if latest.Close <= 0 {
			s.logger.Warn().Str("ticker", code).Int("lookback_days", CurrentLookbackDays).Msg("No recent close")
			return 0, fmt.Errorf("%w: no close for %s in last %d days", models.ErrUnavailable, code, CurrentLookbackDays)
		}
		return latest.Close, nil
	}

	return 0, fmt.Errorf("%w: unknown asset class %q", models.ErrUnavailable, class)
}

// FundNames lists every scheme name in the catalog.
func (s *Service) FundNames(ctx context.Context) ([]string, error) {
	return s.catalog.names(ctx)
}

// SearchFunds returns up to limit schemes whose name contains every word of query.
func (s *Service) SearchFunds(ctx context.Context, query string, limit int) ([]models.Scheme, error) {
	return s.catalog.search(ctx, query, limit)
}

// InvalidateCatalog forces the next catalog access to re-fetch.
func (s *Service) InvalidateCatalog() {
	s.catalog.invalidate()
}

var (
	_ interfaces.PriceSource = (*Service)(nil)
	_ interfaces.FundCatalog = (*Service)(nil)
)
