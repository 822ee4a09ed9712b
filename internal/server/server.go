// Package server exposes the portfolio over an HTTP JSON API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bobmcallan/fintrack/internal/app"
	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
)

// Server wraps the HTTP server and the services it presents.
type Server struct {
	config    *common.Config
	logger    *common.Logger
	portfolio interfaces.PortfolioService
	funds     interfaces.FundCatalog
	server    *http.Server
}

// NewServer creates the HTTP API server for an initialized app.
func NewServer(a *app.App) *Server {
	return New(a.Config, a.Logger, a.PortfolioService, a.Prices)
}

// New creates the HTTP API server over explicit services.
func New(config *common.Config, logger *common.Logger, portfolio interfaces.PortfolioService, funds interfaces.FundCatalog) *Server {
	s := &Server{
		config:    config,
		logger:    logger,
		portfolio: portfolio,
		funds:     funds,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recoveryMiddleware(logger), correlationIDMiddleware(), corsMiddleware(), loggingMiddleware(logger))
	s.registerRoutes(engine)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
