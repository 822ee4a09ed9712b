// Package interfaces defines service contracts for FinTrack
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fintrack/internal/models"
)

// PriceSource is the uniform price lookup over fund and equity providers.
// Implementations never return raw provider errors: failures wrap
// models.ErrNotFound or models.ErrUnavailable.
type PriceSource interface {
	// ResolveIdentifier maps a user-facing name or ticker to a provider code
	ResolveIdentifier(ctx context.Context, class models.AssetClass, name string) (string, error)

	// PriceAt returns the most recent positive price at or before date
	PriceAt(ctx context.Context, class models.AssetClass, code string, date time.Time) (float64, error)

	// CurrentPrice returns the latest available price
	CurrentPrice(ctx context.Context, class models.AssetClass, code string) (float64, error)
}

// FundCatalog exposes the memoised fund scheme catalog.
type FundCatalog interface {
	FundNames(ctx context.Context) ([]string, error)
	SearchFunds(ctx context.Context, query string, limit int) ([]models.Scheme, error)
	InvalidateCatalog()
}

// HoldingInput carries user-entered facts for a new holding.
type HoldingInput struct {
	AssetClass       models.AssetClass
	Identifier       string
	Mode             models.InvestmentMode
	AmountInvested   float64
	AcquisitionDate  time.Time
	UnitsOwned       float64
	AcquisitionPrice float64
	Transactions     []models.Transaction
}

// PortfolioService manages holdings and runs analyses
type PortfolioService interface {
	// ListHoldings returns the stored holdings in entry order
	ListHoldings(ctx context.Context) ([]models.Holding, error)

	// AddHolding validates and stores a new holding
	AddHolding(ctx context.Context, input HoldingInput) (*models.Holding, error)

	// RemoveHolding deletes a holding by ID
	RemoveHolding(ctx context.Context, id string) error

	// FillPlan records monthly installments for a systematic plan from NAV history
	FillPlan(ctx context.Context, id string) (*models.Holding, error)

	// Analyze values every stored holding
	Analyze(ctx context.Context) (*models.Analysis, error)
}
