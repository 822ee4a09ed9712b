package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/services/portfolio"
	"github.com/bobmcallan/fintrack/internal/services/report"
)

const defaultFundSearchLimit = 20

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// holdingView is the JSON shape of a stored holding.
type holdingView struct {
	ID               string                `json:"id"`
	AssetClass       models.AssetClass     `json:"asset_class"`
	Identifier       string                `json:"identifier"`
	Mode             models.InvestmentMode `json:"investment_mode"`
	AmountInvested   float64               `json:"amount_invested"`
	AcquisitionDate  string                `json:"acquisition_date"`
	UnitsOwned       float64               `json:"units_owned,omitempty"`
	AcquisitionPrice float64               `json:"acquisition_price,omitempty"`
	Transactions     []transactionView     `json:"transactions,omitempty"`
}

type transactionView struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Units  float64 `json:"units"`
}

func toHoldingView(h models.Holding) holdingView {
	v := holdingView{
		ID:               h.ID,
		AssetClass:       h.AssetClass,
		Identifier:       h.Identifier,
		Mode:             h.Mode,
		AmountInvested:   h.AmountInvested,
		AcquisitionDate:  h.AcquisitionDate.Format(models.DateLayout),
		UnitsOwned:       h.UnitsOwned,
		AcquisitionPrice: h.AcquisitionPrice,
	}
	for _, tx := range h.Transactions {
		v.Transactions = append(v.Transactions, transactionView{
			Date:   tx.Date.Format(models.DateLayout),
			Amount: tx.Amount,
			Units:  tx.Units,
		})
	}
	return v
}

// addHoldingRequest accepts amounts as JSON numbers or decimal strings.
type addHoldingRequest struct {
	AssetClass       string               `json:"asset_class" binding:"required"`
	Identifier       string               `json:"identifier" binding:"required"`
	Mode             string               `json:"investment_mode" binding:"required"`
	AmountInvested   decimal.Decimal      `json:"amount_invested"`
	AcquisitionDate  string               `json:"acquisition_date" binding:"required"`
	UnitsOwned       decimal.Decimal      `json:"units_owned"`
	AcquisitionPrice decimal.Decimal      `json:"acquisition_price"`
	Transactions     []transactionRequest `json:"transactions"`
}

type transactionRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Units  decimal.Decimal `json:"units"`
}

func (r *addHoldingRequest) toInput() (interfaces.HoldingInput, error) {
	class, err := models.ParseAssetClass(r.AssetClass)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	mode, err := models.ParseInvestmentMode(r.Mode)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	acquired, err := models.ParseDate(r.AcquisitionDate)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}

	input := interfaces.HoldingInput{
		AssetClass:       class,
		Identifier:       r.Identifier,
		Mode:             mode,
		AmountInvested:   r.AmountInvested.InexactFloat64(),
		AcquisitionDate:  acquired,
		UnitsOwned:       r.UnitsOwned.InexactFloat64(),
		AcquisitionPrice: r.AcquisitionPrice.InexactFloat64(),
	}
	for _, tx := range r.Transactions {
		d, err := models.ParseDate(tx.Date)
		if err != nil {
			return interfaces.HoldingInput{}, err
		}
		input.Transactions = append(input.Transactions, models.Transaction{
			Date:   d,
			Amount: tx.Amount.InexactFloat64(),
			Units:  tx.Units.InexactFloat64(),
		})
	}
	return input, nil
}

func (s *Server) handleListHoldings(c *gin.Context) {
	holdings, err := s.portfolio.ListHoldings(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	views := make([]holdingView, 0, len(holdings))
	for _, h := range holdings {
		views = append(views, toHoldingView(h))
	}
	c.JSON(http.StatusOK, gin.H{"holdings": views})
}

func (s *Server) handleAddHolding(c *gin.Context) {
	var req addHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		s.writeError(c, err)
		return
	}

	h, err := s.portfolio.AddHolding(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toHoldingView(*h))
}

func (s *Server) handleRemoveHolding(c *gin.Context) {
	if err := s.portfolio.RemoveHolding(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleFillPlan(c *gin.Context) {
	h, err := s.portfolio.FillPlan(c.Request.Context(), c.Param("id"))
	if err != nil && h == nil {
		s.writeError(c, err)
		return
	}

	resp := gin.H{"holding": toHoldingView(*h)}
	if err != nil {
		// partial fill: installments up to the gap were saved
		resp["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	analysis, err := s.portfolio.Analyze(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleReport(c *gin.Context) {
	analysis, err := s.portfolio.Analyze(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	page, err := report.RenderHTML(report.FormatAnalysis(analysis))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleChart(c *gin.Context) {
	analysis, err := s.portfolio.Analyze(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	png, err := report.RenderValueChart(analysis)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleSearchFunds(c *gin.Context) {
	limit := defaultFundSearchLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	schemes, err := s.funds.SearchFunds(c.Request.Context(), strings.TrimSpace(c.Query("q")), limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if schemes == nil {
		schemes = []models.Scheme{}
	}
	c.JSON(http.StatusOK, gin.H{"funds": schemes})
}

func (s *Server) handleRefreshFunds(c *gin.Context) {
	s.funds.InvalidateCatalog()
	names, err := s.funds.FundNames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"funds": len(names)})
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidHolding):
		status = http.StatusBadRequest
	case portfolio.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
