package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/fintrack/internal/app"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/services/report"
)

// openApp initializes the application from the global -config flag.
func openApp() (*app.App, error) {
	a, err := app.NewApp(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := report.RenderTerminal(md, report.DefaultWrapWidth)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints err; every command error exits with status 1.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// parseAmount parses a decimal amount; an empty string is zero.
func parseAmount(name, s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, fmt.Errorf("%w: %s must be a non-negative decimal, got %q", models.ErrInvalidHolding, name, s)
	}
	return d.InexactFloat64(), nil
}

// txFlag collects repeated -tx DATE:AMOUNT:UNITS values.
type txFlag []models.Transaction

func (t *txFlag) String() string {
	parts := make([]string, len(*t))
	for i, tx := range *t {
		parts[i] = fmt.Sprintf("%s:%g:%g", tx.Date.Format(models.DateLayout), tx.Amount, tx.Units)
	}
	return strings.Join(parts, ",")
}

func (t *txFlag) Set(v string) error {
	fields := strings.Split(v, ":")
	if len(fields) != 3 {
		return fmt.Errorf("transaction %q: want DATE:AMOUNT:UNITS", v)
	}
	date, err := models.ParseDate(fields[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount("transaction amount", fields[1])
	if err != nil {
		return err
	}
	units, err := parseAmount("transaction units", fields[2])
	if err != nil {
		return err
	}
	*t = append(*t, models.Transaction{Date: date, Amount: amount, Units: units})
	return nil
}
