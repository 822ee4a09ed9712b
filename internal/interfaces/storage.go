// Package interfaces defines service contracts for FinTrack
package interfaces

import (
	"context"

	"github.com/bobmcallan/fintrack/internal/models"
)

// PortfolioStore persists the ordered list of holding facts.
type PortfolioStore interface {
	// Load returns the stored holdings; a missing store is an empty portfolio
	Load(ctx context.Context) ([]models.Holding, error)

	// Save replaces the stored holdings
	Save(ctx context.Context, holdings []models.Holding) error
}
