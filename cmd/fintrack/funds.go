package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type fundsCmd struct {
	query string
	limit int
}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "search the mutual fund scheme catalog" }
func (*fundsCmd) Usage() string {
	return `fintrack funds -query <words> [-limit <n>]

  Lists schemes whose name contains every query word, case-insensitively.
`
}

func (c *fundsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "query", "", "Words to match in the scheme name.")
	f.IntVar(&c.limit, "limit", 20, "Maximum number of schemes to list (0 for all).")
}

func (c *fundsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(append([]string{c.query}, f.Args()...), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: -query is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}

	schemes, err := a.Prices.SearchFunds(ctx, query, c.limit)
	if err != nil {
		return fail(err)
	}
	if len(schemes) == 0 {
		fmt.Println("No matching schemes.")
		return subcommands.ExitSuccess
	}

	var sb strings.Builder
	sb.WriteString("| Code | Scheme |\n|------|--------|\n")
	for _, s := range schemes {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", s.Code, strings.ReplaceAll(s.Name, "|", "\\|")))
	}
	printMarkdown(sb.String())
	return subcommands.ExitSuccess
}

type refreshFundsCmd struct{}

func (*refreshFundsCmd) Name() string             { return "refresh-funds" }
func (*refreshFundsCmd) Synopsis() string         { return "re-fetch the mutual fund scheme catalog" }
func (*refreshFundsCmd) SetFlags(f *flag.FlagSet) {}
func (*refreshFundsCmd) Usage() string {
	return `fintrack refresh-funds

  Discards the cached scheme catalog and fetches it again.
`
}

func (c *refreshFundsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}

	a.Prices.InvalidateCatalog()
	names, err := a.Prices.FundNames(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Fund catalog refreshed: %d schemes\n", len(names))
	return subcommands.ExitSuccess
}
