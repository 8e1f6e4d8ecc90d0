package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Portfolio read-only copy of ledger balances used for valuation.
type Portfolio struct {
	CashUSD   decimal.Decimal
	CashKRW   decimal.Decimal
	Positions map[string]Position
	Capital   Capital
}

// Cash returns the cash balance of the bucket.
func (p Portfolio) Cash(b Bucket) decimal.Decimal {
	if b == BucketKRW {
		return p.CashKRW
	}
	return p.CashUSD
}

// SortedPositions returns positions ordered by symbol.
func (p Portfolio) SortedPositions() []Position {
	out := make([]Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
