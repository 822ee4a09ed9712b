package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
	"github.com/bobmcallan/fintrack/internal/services/report"
)

type addCmd struct {
	class  string
	name   string
	mode   string
	amount string
	date   string
	units  string
	price  string
	txs    txFlag
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a fund or equity holding" }
func (*addCmd) Usage() string {
	return `fintrack add -class fund|equity -name <name or ticker> -mode lump_sum|systematic_plan -amount <amount> -date YYYY-MM-DD [-units <n>] [-price <p>] [-tx DATE:AMOUNT:UNITS ...]

  Adds a holding. For a lump sum without -units or -price, the price on the
  acquisition date is looked up. For a systematic plan, -amount is the
  per-installment amount; installments are given with -tx or recorded later
  with sip-fill.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.class, "class", "fund", "Asset class: fund or equity.")
	f.StringVar(&c.name, "name", "", "Fund scheme name (or code) or equity ticker, e.g. INFY.NSE.")
	f.StringVar(&c.mode, "mode", "lump_sum", "Investment mode: lump_sum or systematic_plan.")
	f.StringVar(&c.amount, "amount", "", "Amount invested (per installment for a systematic plan).")
	f.StringVar(&c.date, "date", "", "Acquisition or plan start date, YYYY-MM-DD.")
	f.StringVar(&c.units, "units", "", "Units owned, when known.")
	f.StringVar(&c.price, "price", "", "Acquisition price or NAV, when known (lump sum only).")
	f.Var(&c.txs, "tx", "Installment DATE:AMOUNT:UNITS; repeat for each installment.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input, err := c.input()
	if err != nil {
		return fail(err)
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}

	h, err := a.PortfolioService.AddHolding(ctx, input)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Added %s (%s) with id %s\n", h.Identifier, h.Mode, h.ID)
	for _, note := range addNotes(h) {
		fmt.Fprintln(os.Stderr, note)
	}
	return subcommands.ExitSuccess
}

// addNotes lists follow-ups for a newly stored holding.
func addNotes(h *models.Holding) []string {
	var notes []string
	if !h.IsPlan() && h.UnitsOwned <= 0 && h.AcquisitionPrice <= 0 {
		notes = append(notes, "Warning: acquisition price could not be fetched; each analysis retries the lookup and marks the holding incomplete until a price is found. Re-add it with -units or -price to skip the lookup.")
	}
	if h.IsPlan() && len(h.Transactions) == 0 {
		notes = append(notes, fmt.Sprintf("Note: record installments with `fintrack sip-fill %s`.", h.ID))
	}
	return notes
}

func (c *addCmd) input() (interfaces.HoldingInput, error) {
	class, err := models.ParseAssetClass(c.class)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	mode, err := models.ParseInvestmentMode(c.mode)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	date, err := models.ParseDate(c.date)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	amount, err := parseAmount("amount", c.amount)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	units, err := parseAmount("units", c.units)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}
	price, err := parseAmount("price", c.price)
	if err != nil {
		return interfaces.HoldingInput{}, err
	}

	return interfaces.HoldingInput{
		AssetClass:       class,
		Identifier:       c.name,
		Mode:             mode,
		AmountInvested:   amount,
		AcquisitionDate:  date,
		UnitsOwned:       units,
		AcquisitionPrice: price,
		Transactions:     c.txs,
	}, nil
}

type listCmd struct {
	asJSON bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list stored holdings" }
func (*listCmd) Usage() string {
	return `fintrack list [-json]

  Lists the stored holdings in entry order.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print the raw portfolio file contents.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	holdings, err := a.PortfolioService.ListHoldings(ctx)
	if err != nil {
		return fail(err)
	}

	if c.asJSON {
		data, err := os.ReadFile(a.Store.Path())
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("[]")
				return subcommands.ExitSuccess
			}
			return fail(err)
		}
		os.Stdout.Write(data)
		return subcommands.ExitSuccess
	}

	printMarkdown(report.FormatHoldings(holdings))
	return subcommands.ExitSuccess
}

type removeCmd struct{}

func (*removeCmd) Name() string             { return "remove" }
func (*removeCmd) Synopsis() string         { return "remove holdings by id" }
func (*removeCmd) SetFlags(f *flag.FlagSet) {}
func (*removeCmd) Usage() string {
	return `fintrack remove <id> [<id> ...]

  Removes the holdings with the given ids.
`
}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one holding id is required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	for _, id := range f.Args() {
		if err := a.PortfolioService.RemoveHolding(ctx, strings.TrimSpace(id)); err != nil {
			return fail(err)
		}
		fmt.Printf("Removed %s\n", id)
	}
	return subcommands.ExitSuccess
}

type fillCmd struct{}

func (*fillCmd) Name() string             { return "sip-fill" }
func (*fillCmd) Synopsis() string         { return "record monthly installments of a systematic plan from NAV history" }
func (*fillCmd) SetFlags(f *flag.FlagSet) {}
func (*fillCmd) Usage() string {
	return `fintrack sip-fill <id>

  Records one installment per month from the plan's start date to today,
  each priced at the NAV on its date. Stops at the first date without a NAV;
  installments before it are kept.
`
}

func (c *fillCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one holding id is required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}

	h, err := a.PortfolioService.FillPlan(ctx, f.Arg(0))
	if h == nil {
		return fail(err)
	}

	printMarkdown(report.FormatHoldings([]models.Holding{*h}))

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
