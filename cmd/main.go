// Command papertrade runs the dual-currency paper trading ledger.
//
// Usage:
//
//	papertrade run -config config.yaml
//	papertrade trade -price 185.50 buy AAPL 10
//	papertrade portfolio
//	papertrade setup
//
// Every setting can be overridden with PAPERTRADE_* environment variables.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&runCmd{},
	&tradeCmd{},
	&portfolioCmd{},
	&historyCmd{},
	&reflectCmd{},
	&resetCmd{},
	&setupCmd{},
}
