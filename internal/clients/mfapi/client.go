// Package mfapi provides a client for the mfapi.in mutual fund NAV API
package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
)

const (
	DefaultBaseURL   = "https://api.mfapi.in"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// navDateLayouts are the date formats seen in NAV records, most common first.
var navDateLayouts = []string{"02-01-2006", models.DateLayout}

// latestNAVPaths are probed in order against the latest-NAV payload. The
// record shape has changed over time and between mirrors.
var latestNAVPaths = []string{
	"$.data[0].nav",
	"$.nav",
	"$.scheme_nav",
	"$.last_nav",
}

// Client implements the FundClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new mfapi client.
// No API key is required — this is a public endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a rate-limited GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Dur("elapsed", elapsed).Msg("mfapi request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("mfapi non-OK response")
		return fmt.Errorf("mfapi error: status %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug().Str("path", path).Dur("elapsed", elapsed).Msg("mfapi call")
	return nil
}

// flexString handles JSON values that may be either a string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into string", string(data))
}

type schemeResponse struct {
	SchemeCode flexString `json:"schemeCode"`
	SchemeName string     `json:"schemeName"`
}

// GetSchemes retrieves the full scheme catalog
func (c *Client) GetSchemes(ctx context.Context) ([]models.Scheme, error) {
	var raw []schemeResponse
	if err := c.get(ctx, "/mf", nil, &raw); err != nil {
		return nil, err
	}

	schemes := make([]models.Scheme, 0, len(raw))
	for _, s := range raw {
		if s.SchemeCode == "" || strings.TrimSpace(s.SchemeName) == "" {
			continue
		}
		schemes = append(schemes, models.Scheme{
			Code: string(s.SchemeCode),
			Name: strings.TrimSpace(s.SchemeName),
		})
	}

	c.logger.Info().Int("schemes", len(schemes)).Msg("Fetched fund scheme catalog")
	return schemes, nil
}

type navRecord struct {
	Date string     `json:"date"`
	NAV  flexString `json:"nav"`
}

type navHistoryResponse struct {
	Data   []navRecord `json:"data"`
	Status string      `json:"status"`
}

// GetNAVHistory retrieves NAV records for a scheme within [from, to], oldest
// first. Records with unparseable dates or non-positive NAVs are skipped.
func (c *Client) GetNAVHistory(ctx context.Context, code string, from, to time.Time) ([]models.NAVPoint, error) {
	params := url.Values{}
	params.Set("startDate", from.Format(models.DateLayout))
	params.Set("endDate", to.Format(models.DateLayout))

	var resp navHistoryResponse
	if err := c.get(ctx, "/mf/"+url.PathEscape(code), params, &resp); err != nil {
		return nil, err
	}

	lo, hi := models.Day(from), models.Day(to)
	points := make([]models.NAVPoint, 0, len(resp.Data))
	for _, rec := range resp.Data {
		date, ok := parseNAVDate(rec.Date)
		if !ok {
			c.logger.Warn().Str("scheme", code).Str("date", rec.Date).Msg("Skipping NAV record with invalid date")
			continue
		}
		nav, err := strconv.ParseFloat(strings.TrimSpace(string(rec.NAV)), 64)
		if err != nil || nav <= 0 {
			c.logger.Warn().Str("scheme", code).Str("nav", string(rec.NAV)).Msg("Skipping invalid NAV record")
			continue
		}
		// Mirrors without range support return the full history
		if date.Before(lo) || date.After(hi) {
			continue
		}
		points = append(points, models.NAVPoint{Date: date, NAV: nav})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// GetLatestNAV retrieves the most recent NAV published for a scheme
func (c *Client) GetLatestNAV(ctx context.Context, code string) (float64, error) {
	var payload interface{}
	if err := c.get(ctx, "/mf/"+url.PathEscape(code)+"/latest", nil, &payload); err != nil {
		return 0, err
	}

	for _, path := range latestNAVPaths {
		v, err := jsonpath.Get(path, payload)
		if err != nil {
			continue
		}
		if nav, ok := navValue(v); ok {
			return nav, nil
		}
	}

	return 0, fmt.Errorf("no NAV found in latest record for scheme %s", code)
}

// navValue accepts a positive number or numeric string.
func navValue(v interface{}) (float64, bool) {
	// jsonpath may wrap a single match in a list
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return 0, false
		}
		v = list[0]
	}

	var nav float64
	switch x := v.(type) {
	case float64:
		nav = x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		nav = f
	default:
		return 0, false
	}
	return nav, nav > 0
}

func parseNAVDate(s string) (time.Time, bool) {
	for _, layout := range navDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Ensure Client implements FundClient
var _ interfaces.FundClient = (*Client)(nil)
