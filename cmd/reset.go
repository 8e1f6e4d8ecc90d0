package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/google/subcommands"
)

type resetCmd struct {
	common
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "wipe trades and positions and restore the initial cash" }
func (*resetCmd) Usage() string {
	return `papertrade reset [-yes]

  Clears the ledger, the journal and the quote cache. Diary entries are kept.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.yes, "yes", false, "skip the confirmation prompt")
}

func (c *resetCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Reset the paper portfolio?").
					Affirmative("Yes, reset").
					Negative("No").
					Value(&c.yes),
			),
		).Run()
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		if !c.yes {
			return subcommands.ExitSuccess
		}
	}

	pt, _, logger, err := c.open(false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	if err := pt.Reset(); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	fmt.Println("portfolio reset")
	return subcommands.ExitSuccess
}
