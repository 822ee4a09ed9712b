package server

import "github.com/gin-gonic/gin"

// registerRoutes sets up all REST API routes on the engine.
func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// System
	api.GET("/health", s.handleHealth)
	api.GET("/version", s.handleVersion)

	// Holdings
	api.GET("/holdings", s.handleListHoldings)
	api.POST("/holdings", s.handleAddHolding)
	api.DELETE("/holdings/:id", s.handleRemoveHolding)
	api.POST("/holdings/:id/fill", s.handleFillPlan)

	// Analysis
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/report", s.handleReport)
	api.GET("/chart.png", s.handleChart)

	// Fund catalog
	api.GET("/funds", s.handleSearchFunds)
	api.POST("/funds/refresh", s.handleRefreshFunds)
}
