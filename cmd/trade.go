package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/internal/domain"
)

type tradeCmd struct {
	common
	price string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "execute a simulated market order" }
func (*tradeCmd) Usage() string {
	return `papertrade trade [-price <price>] buy|sell <symbol> <quantity>

  Fills the order at -price, or at the last cached quote of the symbol when
  -price is omitted. KOSPI (.KS) and KOSDAQ (.KQ) symbols settle in KRW,
  everything else in USD.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.price, "price", "", "execution price, defaults to the cached quote")
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	tradeType, err := domain.ParseTradeType(f.Arg(0))
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	symbol := domain.NormalizeSymbol(f.Arg(1))
	quantity, err := decimal.NewFromString(f.Arg(2))
	if err != nil {
		fail(errors.Wrap(err, "quantity"))
		return subcommands.ExitUsageError
	}

	pt, _, logger, err := c.open(false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	var price decimal.Decimal
	if c.price != "" {
		if price, err = decimal.NewFromString(c.price); err != nil {
			fail(errors.Wrap(err, "price"))
			return subcommands.ExitUsageError
		}
	} else {
		quote, ok := pt.Quote(symbol)
		if !ok {
			fail(fmt.Errorf("no cached quote for %s, pass -price", symbol))
			return subcommands.ExitFailure
		}
		price = quote.Price
	}

	tx, err := pt.ExecuteTrade(tradeType, symbol, quantity, price)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	bucket := tx.Bucket()
	fmt.Printf("%s\n", tx.String())
	fmt.Printf("transaction id: %s\n", tx.ID)
	fmt.Printf("%s cash: %s\n", bucket, domain.FormatAmount(bucket, pt.Cash(bucket)))
	return subcommands.ExitSuccess
}
