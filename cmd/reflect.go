package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/reflection"
)

type reflectCmd struct {
	common
	txID    string
	emotion string
	reason  string
	note    string
	whatIf  string
	recheck string
	list    bool
}

func (*reflectCmd) Name() string     { return "reflect" }
func (*reflectCmd) Synopsis() string { return "write a diary reflection on a trade" }
func (*reflectCmd) Usage() string {
	return `papertrade reflect [-tx <id>] [-emotion <e>] [-reason <r>] [-note <text>] [-whatif <text>] [-recheck <pct>]
papertrade reflect -list

  Records how you felt about a trade and why you placed it. Defaults to the most
  recent trade. Prompts for anything not given on the command line.
`
}

func (c *reflectCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.txID, "tx", "", "transaction id, defaults to the latest trade")
	f.StringVar(&c.emotion, "emotion", "", "confident, anxious, excited, regretful or neutral")
	f.StringVar(&c.reason, "reason", "", "news, analysis, impulse or recommendation")
	f.StringVar(&c.note, "note", "", "free text")
	f.StringVar(&c.whatIf, "whatif", "", "what would you do differently")
	f.StringVar(&c.recheck, "recheck", "", "price move in percent that should trigger a review")
	f.BoolVar(&c.list, "list", false, "list recorded reflections")
}

func (c *reflectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pt, _, logger, err := c.open(false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	if c.list {
		entries, err := pt.DiaryEntries()
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		for _, e := range entries {
			fmt.Printf("%s  %-6s %-10s %-9s %-14s %s\n",
				e.Date.Local().Format("2006-01-02 15:04"), e.TradeType, e.RelatedSymbol, e.Emotion, e.Reason, e.Note)
		}
		return subcommands.ExitSuccess
	}

	txID := c.txID
	if txID == "" {
		txs := pt.Transactions(domain.NewestFirst)
		if len(txs) == 0 {
			fail(errors.New("no trades to reflect on"))
			return subcommands.ExitFailure
		}
		txID = txs[0].ID
		fmt.Printf("reflecting on %s\n", txs[0].String())
	}

	if c.emotion == "" || c.reason == "" || c.note == "" {
		if err := c.prompt(); err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
	}

	r := reflection.Reflection{
		Emotion: domain.Emotion(c.emotion),
		Reason:  domain.Reason(c.reason),
		Note:    c.note,
		WhatIf:  c.whatIf,
	}
	if c.recheck != "" {
		pct, err := decimal.NewFromString(c.recheck)
		if err != nil {
			fail(errors.Wrap(err, "recheck"))
			return subcommands.ExitUsageError
		}
		r.RecheckPct = &pct
	}

	id, err := pt.Reflect(ctx, txID, r)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("diary entry %s saved\n", id)
	return subcommands.ExitSuccess
}

func (c *reflectCmd) prompt() error {
	emotions := make([]huh.Option[string], 0, len(domain.Emotions))
	for _, e := range domain.Emotions {
		emotions = append(emotions, huh.NewOption(string(e), string(e)))
	}
	reasons := make([]huh.Option[string], 0, len(domain.Reasons))
	for _, r := range domain.Reasons {
		reasons = append(reasons, huh.NewOption(string(r), string(r)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How did you feel?").
				Options(emotions...).
				Value(&c.emotion),
			huh.NewSelect[string]().
				Title("Why did you trade?").
				Options(reasons...).
				Value(&c.reason),
			huh.NewText().
				Title("Note").
				Value(&c.note).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("note cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("What if?").
				Description("Optional").
				Value(&c.whatIf),
		),
	).Run()
}
