// Package valuation derives equity and profit figures from a portfolio and cached quotes.
package valuation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Result equity and P/L of both buckets. USD and KRW figures are never summed.
type Result struct {
	USDEquity    decimal.Decimal `json:"usd_equity"`
	KRWEquity    decimal.Decimal `json:"krw_equity"`
	USDPL        decimal.Decimal `json:"usd_pl"`
	KRWPL        decimal.Decimal `json:"krw_pl"`
	USDPLPercent decimal.Decimal `json:"usd_pl_percent"`
	KRWPLPercent decimal.Decimal `json:"krw_pl_percent"`
	USDHoldings  decimal.Decimal `json:"usd_holdings"`
	KRWHoldings  decimal.Decimal `json:"krw_holdings"`
}

// Equity returns the equity of the bucket.
func (r Result) Equity(b domain.Bucket) decimal.Decimal {
	if b == domain.BucketKRW {
		return r.KRWEquity
	}
	return r.USDEquity
}

// PL returns the profit or loss of the bucket.
func (r Result) PL(b domain.Bucket) decimal.Decimal {
	if b == domain.BucketKRW {
		return r.KRWPL
	}
	return r.USDPL
}

// PLPercent returns the profit or loss of the bucket relative to its capital.
func (r Result) PLPercent(b domain.Bucket) decimal.Decimal {
	if b == domain.BucketKRW {
		return r.KRWPLPercent
	}
	return r.USDPLPercent
}

// Snapshot builds the valuation history entry for a trade settled in bucket.
func (r Result) Snapshot(at time.Time, bucket domain.Bucket) domain.ValuationSnapshot {
	return domain.NewValuationSnapshot(at, bucket, r.USDEquity, r.KRWEquity)
}

// MarkPrice is the cached price of the position, or its average price when no quote is cached.
func MarkPrice(pos domain.Position, quotes map[string]domain.QuoteEntry) decimal.Decimal {
	if q, ok := quotes[pos.Symbol]; ok && q.Price.IsPositive() {
		return q.Price
	}
	return pos.AvgPrice
}

// Valuate computes equity and P/L of the portfolio. It has no side effects.
func Valuate(portfolio domain.Portfolio, quotes map[string]domain.QuoteEntry) Result {
	holdings := map[domain.Bucket]decimal.Decimal{
		domain.BucketUSD: decimal.Zero,
		domain.BucketKRW: decimal.Zero,
	}
	for _, pos := range portfolio.Positions {
		b := pos.Bucket()
		holdings[b] = holdings[b].Add(pos.Quantity.Mul(MarkPrice(pos, quotes)))
	}

	usdEquity := portfolio.CashUSD.Add(holdings[domain.BucketUSD])
	krwEquity := portfolio.CashKRW.Add(holdings[domain.BucketKRW])
	usdPL := usdEquity.Sub(portfolio.Capital.USD)
	krwPL := krwEquity.Sub(portfolio.Capital.KRW)

	return Result{
		USDEquity:    usdEquity,
		KRWEquity:    krwEquity,
		USDPL:        usdPL,
		KRWPL:        krwPL,
		USDPLPercent: percentOf(usdPL, portfolio.Capital.USD),
		KRWPLPercent: percentOf(krwPL, portfolio.Capital.KRW),
		USDHoldings:  holdings[domain.BucketUSD],
		KRWHoldings:  holdings[domain.BucketKRW],
	}
}

func percentOf(pl, capital decimal.Decimal) decimal.Decimal {
	if capital.IsZero() {
		return decimal.Zero
	}
	return pl.Div(capital).Mul(hundred)
}
