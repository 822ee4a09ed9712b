package pricesource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
)

var errSchemeUnknown = errors.New("scheme not in catalog")

// catalog memoises the fund scheme list for the process lifetime. An empty
// fetch result is not memoised, so the next access retries.
type catalog struct {
	client  interfaces.FundClient
	timeout time.Duration
	logger  *common.Logger

	mu      sync.Mutex
	schemes []models.Scheme
	byName  map[string]string
	byCode  map[string]bool
}

func newCatalog(client interfaces.FundClient, timeout time.Duration, logger *common.Logger) *catalog {
	return &catalog{client: client, timeout: timeout, logger: logger}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// load returns the memoised schemes, fetching them when absent.
func (c *catalog) load(ctx context.Context) ([]models.Scheme, map[string]string, map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.schemes) > 0 {
		return c.schemes, c.byName, c.byCode, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Info().Msg("Fetching fund scheme catalog")
	schemes, err := c.client.GetSchemes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch scheme catalog: %w", err)
	}
	if len(schemes) == 0 {
		return nil, nil, nil, errors.New("scheme catalog is empty")
	}

	byName := make(map[string]string, len(schemes))
	byCode := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		key := normalizeName(s.Name)
		// first occurrence wins for duplicated names
		if _, ok := byName[key]; !ok {
			byName[key] = s.Code
		}
		byCode[s.Code] = true
	}

	c.schemes, c.byName, c.byCode = schemes, byName, byCode
	return schemes, byName, byCode, nil
}

func (c *catalog) lookup(ctx context.Context, name string) (string, error) {
	_, byName, byCode, err := c.load(ctx)
	if err != nil {
		return "", err
	}
	if code, ok := byName[normalizeName(name)]; ok {
		return code, nil
	}
	if byCode[strings.TrimSpace(name)] {
		return strings.TrimSpace(name), nil
	}
	return "", fmt.Errorf("%w: %s", errSchemeUnknown, name)
}

func (c *catalog) names(ctx context.Context) ([]string, error) {
	schemes, _, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = s.Name
	}
	return names, nil
}

func (c *catalog) search(ctx context.Context, query string, limit int) ([]models.Scheme, error) {
	schemes, _, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(normalizeName(query))
	var out []models.Scheme
	for _, s := range schemes {
		name := normalizeName(s.Name)
		match := true
		for _, w := range words {
			if !strings.Contains(name, w) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *catalog) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemes, c.byName, c.byCode = nil, nil, nil
	c.logger.Info().Msg("Fund scheme catalog invalidated")
}
