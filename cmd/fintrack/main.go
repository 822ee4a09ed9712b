// Command fintrack records investment holdings and analyses their returns.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var configPath = flag.String("config", "", "Path to the TOML config file (default $FINTRACK_CONFIG or config/fintrack.toml)")

// commands lists every subcommand with its group.
var commands = []struct {
	cmd   subcommands.Command
	group string
}{
	{&addCmd{}, "holdings"},
	{&listCmd{}, "holdings"},
	{&removeCmd{}, "holdings"},
	{&fillCmd{}, "holdings"},
	{&analyzeCmd{}, "analysis"},
	{&fundsCmd{}, "funds"},
	{&refreshFundsCmd{}, "funds"},
	{&serveCmd{}, "server"},
	{&versionCmd{}, ""},
}

func main() {
	name := path.Base(os.Args[0])

	// Shell completion: exits when invoked by the shell's completion hook.
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c.cmd, c.group)
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	classes := predict.Set{"fund", "equity"}
	modes := predict.Set{"lump_sum", "systematic_plan"}
	formats := predict.Set{"markdown", "json"}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
		},
		Sub: map[string]*complete.Command{
			"add": {Flags: map[string]complete.Predictor{
				"class":  classes,
				"mode":   modes,
				"name":   predict.Something,
				"amount": predict.Something,
				"date":   predict.Something,
				"units":  predict.Something,
				"price":  predict.Something,
				"tx":     predict.Something,
			}},
			"list":     {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"remove":   {Args: predict.Something},
			"sip-fill": {Args: predict.Something},
			"analyze": {Flags: map[string]complete.Predictor{
				"format": formats,
				"chart":  predict.Files("*.png"),
				"plain":  predict.Nothing,
			}},
			"funds": {Flags: map[string]complete.Predictor{
				"query": predict.Something,
				"limit": predict.Something,
			}},
			"refresh-funds": {},
			"serve":         {},
			"version":       {},
		},
	}
}
