package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func portfolioWith(cashUSD, cashKRW string, positions ...domain.Position) domain.Portfolio {
	p := domain.Portfolio{
		CashUSD:   d(cashUSD),
		CashKRW:   d(cashKRW),
		Positions: make(map[string]domain.Position),
		Capital:   domain.DefaultCapital,
	}
	for _, pos := range positions {
		p.Positions[pos.Symbol] = pos
	}
	return p
}

func TestValuate_FreshPortfolio(t *testing.T) {
	res := Valuate(portfolioWith("100000", "100000000"), nil)

	assert.True(t, res.USDEquity.Equal(d("100000")))
	assert.True(t, res.KRWEquity.Equal(d("100000000")))
	assert.True(t, res.USDPL.IsZero())
	assert.True(t, res.KRWPL.IsZero())
	assert.True(t, res.USDPLPercent.IsZero())
	assert.True(t, res.USDHoldings.IsZero())
}

func TestValuate_UsesCachedPrice(t *testing.T) {
	p := portfolioWith("97195", "100000000",
		domain.Position{Symbol: "AAPL", Quantity: d("15"), AvgPrice: d("187")})
	quotes := map[string]domain.QuoteEntry{
		"AAPL": {Symbol: "AAPL", Price: d("200")},
	}

	res := Valuate(p, quotes)

	assert.True(t, res.USDHoldings.Equal(d("3000")), res.USDHoldings.String())
	assert.True(t, res.USDEquity.Equal(d("100195")), res.USDEquity.String())
	assert.True(t, res.USDPL.Equal(d("195")))
	assert.True(t, res.USDPLPercent.Equal(d("0.195")), res.USDPLPercent.String())
	assert.True(t, res.KRWPL.IsZero())
}

func TestValuate_FallsBackToAvgPricePerPosition(t *testing.T) {
	p := portfolioWith("0", "0",
		domain.Position{Symbol: "AAPL", Quantity: d("2"), AvgPrice: d("100")},
		domain.Position{Symbol: "TSLA", Quantity: d("3"), AvgPrice: d("50")},
		domain.Position{Symbol: "005930.KS", Quantity: d("10"), AvgPrice: d("70000")},
	)
	quotes := map[string]domain.QuoteEntry{
		"AAPL":      {Symbol: "AAPL", Price: d("110")},
		"005930.KS": {Symbol: "005930.KS", Price: d("0")},
	}

	res := Valuate(p, quotes)

	// AAPL marked at 110, TSLA at its average, Samsung at its average since the cached price is unusable.
	assert.True(t, res.USDHoldings.Equal(d("370")), res.USDHoldings.String())
	assert.True(t, res.KRWHoldings.Equal(d("700000")), res.KRWHoldings.String())
}

func TestValuate_BucketsAreIndependent(t *testing.T) {
	p := portfolioWith("99000", "99300000",
		domain.Position{Symbol: "005930.KS", Quantity: d("10"), AvgPrice: d("70000")})
	quotes := map[string]domain.QuoteEntry{
		"005930.KS": {Symbol: "005930.KS", Price: d("80000")},
	}

	res := Valuate(p, quotes)

	assert.True(t, res.KRWEquity.Equal(d("100100000")))
	assert.True(t, res.KRWPL.Equal(d("100000")))
	assert.True(t, res.KRWPLPercent.Equal(d("0.1")), res.KRWPLPercent.String())
	assert.True(t, res.USDPL.Equal(d("-1000")))
	assert.True(t, res.USDPLPercent.Equal(d("-1")))
	assert.True(t, res.PL(domain.BucketKRW).Equal(res.KRWPL))
	assert.True(t, res.Equity(domain.BucketUSD).Equal(res.USDEquity))
}

func TestValuate_ZeroCapital(t *testing.T) {
	p := portfolioWith("10", "0")
	p.Capital = domain.Capital{}

	res := Valuate(p, nil)

	assert.True(t, res.USDPL.Equal(d("10")))
	assert.True(t, res.USDPLPercent.IsZero())
	assert.True(t, res.KRWPLPercent.IsZero())
}

func TestValuate_DoesNotMutateInputs(t *testing.T) {
	p := portfolioWith("100", "0", domain.Position{Symbol: "AAPL", Quantity: d("1"), AvgPrice: d("10")})
	quotes := map[string]domain.QuoteEntry{"AAPL": {Symbol: "AAPL", Price: d("12")}}

	first := Valuate(p, quotes)
	second := Valuate(p, quotes)

	assert.Equal(t, first, second)
	require.Len(t, p.Positions, 1)
	assert.True(t, p.Positions["AAPL"].AvgPrice.Equal(d("10")))
	assert.True(t, quotes["AAPL"].Price.Equal(d("12")))
}

func TestResult_Snapshot(t *testing.T) {
	at := time.Date(2026, 10, 15, 15, 4, 5, 0, time.UTC)
	res := Result{USDEquity: d("100195"), KRWEquity: d("100000000")}

	snap := res.Snapshot(at, domain.BucketUSD)
	assert.Equal(t, "2026-10-15", snap.Date)
	assert.True(t, snap.Value.Equal(d("100195")))
	assert.True(t, snap.KRW.Equal(d("100000000")))

	krw := res.Snapshot(at, domain.BucketKRW)
	assert.True(t, krw.Value.Equal(d("100000000")))
}
