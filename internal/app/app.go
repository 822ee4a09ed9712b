// Package app wires configuration, storage, provider clients and services.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/bobmcallan/fintrack/internal/clients/eodhd"
	"github.com/bobmcallan/fintrack/internal/clients/mfapi"
	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/services/portfolio"
	"github.com/bobmcallan/fintrack/internal/services/pricesource"
	"github.com/bobmcallan/fintrack/internal/storage"
)

// DefaultConfigPath is used when no config path is given and FINTRACK_CONFIG is unset.
const DefaultConfigPath = "config/fintrack.toml"

// App holds all initialized services and clients.
// It is the shared core used by the CLI and the HTTP server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            *storage.FileStore
	EODHDClient      *eodhd.Client
	FundClient       *mfapi.Client
	Prices           *pricesource.Service
	PortfolioService *portfolio.Service
	StartupTime      time.Time
}

// NewApp loads configuration and initializes every component.
// configPath may be empty, in which case FINTRACK_CONFIG or
// DefaultConfigPath is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	if configPath == "" {
		configPath = os.Getenv("FINTRACK_CONFIG")
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig initializes every component from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	store, err := storage.NewFileStore(logger, &config.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - equity prices will be unavailable")
	}

	eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)

	fundClient := mfapi.NewClient(
		mfapi.WithBaseURL(config.Clients.MFAPI.BaseURL),
		mfapi.WithLogger(logger),
		mfapi.WithRateLimit(config.Clients.MFAPI.RateLimit),
		mfapi.WithTimeout(config.Clients.MFAPI.GetTimeout()),
	)

	prices := pricesource.NewService(fundClient, eodhdClient, logger,
		pricesource.WithCallTimeout(config.Pricing.GetTimeout()),
	)
	portfolioService := portfolio.NewService(store, prices, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		EODHDClient:      eodhdClient,
		FundClient:       fundClient,
		Prices:           prices,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Str("portfolio", config.Portfolio.Path).Msg("App initialized")
	return a, nil
}
