package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/subcommands"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/valuation"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type portfolioCmd struct {
	common
	names bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show cash, positions and P/L per currency" }
func (*portfolioCmd) Usage() string {
	return `papertrade portfolio [-names]

  Values the ledger with the cached quotes. Positions without a cached quote are
  marked at their average price.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.names, "names", false, "look up company names")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pt, _, logger, err := c.open(false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	res := pt.Valuation()
	quotes := pt.Quotes()

	summary := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "CASH", "EQUITY", "P/L", "P/L %")
	for _, b := range domain.Buckets {
		summary.Row(
			b.String(),
			domain.FormatAmount(b, pt.Cash(b)),
			domain.FormatAmount(b, res.Equity(b)),
			colored(res.PL(b), domain.FormatAmount(b, res.PL(b))),
			colored(res.PL(b), domain.FormatPercent(res.PLPercent(b))),
		)
	}

	fmt.Println(titleStyle.Render("PORTFOLIO"))
	fmt.Println(summary.Render())

	positions := pt.Positions()
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return subcommands.ExitSuccess
	}

	holdings := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SYMBOL", "NAME", "QTY", "AVG", "MARK", "VALUE", "P/L")
	for _, pos := range positions {
		b := pos.Bucket()
		mark := valuation.MarkPrice(pos, quotes)
		value := pos.Quantity.Mul(mark)
		pl := value.Sub(pos.CostBasis())

		name := ""
		if c.names {
			name = pt.DisplayName(ctx, pos.Symbol)
		}

		holdings.Row(
			pos.Symbol,
			name,
			pos.Quantity.String(),
			domain.FormatAmount(b, pos.AvgPrice),
			domain.FormatAmount(b, mark),
			domain.FormatAmount(b, value),
			colored(pl, domain.FormatAmount(b, pl)),
		)
	}
	fmt.Println(holdings.Render())
	return subcommands.ExitSuccess
}

func colored(sign interface{ Sign() int }, s string) string {
	switch sign.Sign() {
	case 1:
		return gainStyle.Render(s)
	case -1:
		return lossStyle.Render(s)
	default:
		return s
	}
}
