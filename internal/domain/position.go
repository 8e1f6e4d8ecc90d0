package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position open holding of a single symbol.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// NewPosition constructs a position opened by a first buy.
func NewPosition(symbol string, quantity, price decimal.Decimal) (Position, error) {
	if symbol == "" {
		return Position{}, errors.New("position symbol is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return Position{}, errors.New("position quantity must be greater than zero")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return Position{}, errors.New("average price must be greater than zero")
	}

	return Position{Symbol: symbol, Quantity: quantity, AvgPrice: price}, nil
}

// Bucket returns the currency bucket of the position.
func (p Position) Bucket() Bucket {
	return BucketOf(p.Symbol)
}

// CostBasis quantity times average price.
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPrice)
}

// Add returns the position after buying quantity more at price, with the
// weighted-average cost basis recomputed.
func (p Position) Add(quantity, price decimal.Decimal) Position {
	total := p.Quantity.Add(quantity)
	notional := p.CostBasis().Add(quantity.Mul(price))

	return Position{
		Symbol:   p.Symbol,
		Quantity: total,
		AvgPrice: notional.Div(total),
	}
}

// Reduce returns the position after selling quantity. The average price is kept.
func (p Position) Reduce(quantity decimal.Decimal) Position {
	return Position{
		Symbol:   p.Symbol,
		Quantity: p.Quantity.Sub(quantity),
		AvgPrice: p.AvgPrice,
	}
}

// Validate checks a restored position.
func (p Position) Validate() error {
	if p.Symbol == "" {
		return errors.New("position symbol is empty")
	}
	if !p.Quantity.IsPositive() {
		return errors.Errorf("position %s quantity %s must be positive", p.Symbol, p.Quantity)
	}
	if !p.AvgPrice.IsPositive() {
		return errors.Errorf("position %s average price %s must be positive", p.Symbol, p.AvgPrice)
	}
	return nil
}
