package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote price data returned by a quote provider for one symbol.
type Quote struct {
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

// IsValid reports whether the quote carries a usable price.
func (q Quote) IsValid() bool {
	return q.Price.IsPositive()
}

// QuoteEntry last known quote of a symbol held by the quote cache.
type QuoteEntry struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	ChangePct  decimal.Decimal `json:"change_pct"`
	ObservedAt time.Time       `json:"observed_at"`
}

// Volatility coarse risk label shown next to a stock.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// Stock search/lookup result.
type Stock struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ChangePct  decimal.Decimal `json:"change_pct"`
	Sector     string          `json:"sector"`
	Volatility Volatility      `json:"volatility"`
}
