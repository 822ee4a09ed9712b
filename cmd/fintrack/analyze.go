package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fintrack/internal/services/report"
)

type analyzeCmd struct {
	format string
	chart  string
	plain  bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "value every holding and summarise the portfolio" }
func (*analyzeCmd) Usage() string {
	return `fintrack analyze [-format markdown|json] [-plain] [-chart <file.png>]

  Fetches current prices and reports value, gain/loss, CAGR and XIRR per
  holding and for the portfolio. Holdings that cannot be valued are listed
  with the reason and left out of the totals.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "markdown", "Output format: markdown or json.")
	f.StringVar(&c.chart, "chart", "", "Also write a PNG chart of current values to this file.")
	f.BoolVar(&c.plain, "plain", false, "Print markdown without terminal styling.")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "markdown" && c.format != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}

	analysis, err := a.PortfolioService.Analyze(ctx)
	if err != nil {
		return fail(err)
	}

	switch {
	case c.format == "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			return fail(err)
		}
	case c.plain:
		fmt.Print(report.FormatAnalysis(analysis))
	default:
		printMarkdown(report.FormatAnalysis(analysis))
	}

	if c.chart != "" {
		png, err := report.RenderValueChart(analysis)
		if err != nil {
			return fail(err)
		}
		if err := os.WriteFile(c.chart, png, 0644); err != nil {
			return fail(err)
		}
		fmt.Fprintf(os.Stderr, "Chart written to %s\n", c.chart)
	}
	return subcommands.ExitSuccess
}
