package domain

import (
	"fmt"
	"strings"
)

// TradeType side of a market order.
type TradeType string

const (
	// TradeBuy opens or adds to a position.
	TradeBuy TradeType = "BUY"
	// TradeSell reduces or closes a position.
	TradeSell TradeType = "SELL"
)

// String returns the string representation.
func (t TradeType) String() string {
	return string(t)
}

// IsValid checks if the TradeType value is valid.
func (t TradeType) IsValid() bool {
	return t == TradeBuy || t == TradeSell
}

// ParseTradeType parses "buy"/"sell" in any case.
func ParseTradeType(s string) (TradeType, error) {
	t := TradeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown trade type %q", s)
	}
	return t, nil
}
