package domain

import "github.com/shopspring/decimal"

// Capital initial cash per bucket. P/L is measured against it.
type Capital struct {
	USD decimal.Decimal
	KRW decimal.Decimal
}

// DefaultCapital is the starting allowance of a new ledger.
var DefaultCapital = Capital{
	USD: decimal.NewFromInt(100_000),
	KRW: decimal.NewFromInt(100_000_000),
}

// Of returns the capital of the bucket.
func (c Capital) Of(b Bucket) decimal.Decimal {
	if b == BucketKRW {
		return c.KRW
	}
	return c.USD
}
