// Package interfaces defines service contracts for FinTrack
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fintrack/internal/models"
)

// EODHDClient provides access to the EODHD equity data API
type EODHDClient interface {
	// GetEOD retrieves end-of-day price data
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) (*models.EODResponse, error)

	// GetInstrument retrieves the general description of a listed instrument
	GetInstrument(ctx context.Context, ticker string) (*models.Instrument, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From time.Time
	To   time.Time
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// FundClient provides access to a mutual fund NAV API
type FundClient interface {
	// GetSchemes retrieves the full scheme catalog
	GetSchemes(ctx context.Context) ([]models.Scheme, error)

	// GetNAVHistory retrieves NAV records for a scheme within [from, to]
	GetNAVHistory(ctx context.Context, code string, from, to time.Time) ([]models.NAVPoint, error)

	// GetLatestNAV retrieves the most recent NAV published for a scheme
	GetLatestNAV(ctx context.Context, code string) (float64, error)
}
