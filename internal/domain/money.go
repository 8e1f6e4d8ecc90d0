package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with the bucket's currency symbol and minor units
// ("$98,145.00", "₩1,250,000").
func FormatAmount(b Bucket, amount decimal.Decimal) string {
	cur := money.GetCurrency(b.String())
	if cur == nil {
		return amount.String()
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// FormatPercent renders a percentage with two decimals and an explicit sign.
func FormatPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2) + "%"
	if pct.IsPositive() {
		return "+" + s
	}
	return s
}
