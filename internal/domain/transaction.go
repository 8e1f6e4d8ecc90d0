package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction executed market order. Immutable once appended to the log.
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"date"`
	Type      TradeType       `json:"type"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Bucket returns the currency bucket the transaction settled in.
func (t Transaction) Bucket() Bucket {
	return BucketOf(t.Symbol)
}

// Notional quantity times price.
func (t Transaction) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// String returns a human-readable string representation.
func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s @ %s", t.Type, t.Quantity.String(), t.Symbol, FormatAmount(t.Bucket(), t.Price))
}

// Order presentation order of the transaction log.
type Order int

const (
	// OldestFirst insertion order.
	OldestFirst Order = iota
	// NewestFirst reverse insertion order.
	NewestFirst
)
