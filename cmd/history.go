package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/subcommands"

	"github.com/vadiminshakov/papertrade/internal/domain"
)

type historyCmd struct {
	common
	oldest     bool
	valuations bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list executed trades or the valuation history" }
func (*historyCmd) Usage() string {
	return `papertrade history [-oldest] [-valuations]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.oldest, "oldest", false, "oldest trades first")
	f.BoolVar(&c.valuations, "valuations", false, "show the valuation history instead of trades")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pt, _, logger, err := c.open(false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	if c.valuations {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("DATE", "BUCKET", "VALUE", "USD", "KRW")
		for _, s := range pt.History() {
			t.Row(
				s.Timestamp.Local().Format("2006-01-02 15:04"),
				s.Bucket.String(),
				domain.FormatAmount(s.Bucket, s.Value),
				domain.FormatAmount(domain.BucketUSD, s.USD),
				domain.FormatAmount(domain.BucketKRW, s.KRW),
			)
		}
		fmt.Println(t.Render())
		return subcommands.ExitSuccess
	}

	order := domain.NewestFirst
	if c.oldest {
		order = domain.OldestFirst
	}

	txs := pt.Transactions(order)
	if len(txs) == 0 {
		fmt.Println("no trades yet")
		return subcommands.ExitSuccess
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("DATE", "TYPE", "SYMBOL", "QTY", "PRICE", "TOTAL", "ID")
	for _, tx := range txs {
		b := tx.Bucket()
		t.Row(
			tx.Timestamp.Local().Format("2006-01-02 15:04"),
			tx.Type.String(),
			tx.Symbol,
			tx.Quantity.String(),
			domain.FormatAmount(b, tx.Price),
			domain.FormatAmount(b, tx.Notional()),
			tx.ID,
		)
	}
	fmt.Println(t.Render())
	return subcommands.ExitSuccess
}
