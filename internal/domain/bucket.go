// Package domain defines core data structures used throughout the paper trading ledger.
package domain

import "strings"

// Bucket currency ledger a symbol settles in.
type Bucket string

const (
	// BucketUSD NASDAQ-style symbols.
	BucketUSD Bucket = "USD"
	// BucketKRW Korean exchange symbols (KOSPI .KS, KOSDAQ .KQ).
	BucketKRW Bucket = "KRW"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketUSD, BucketKRW}

// String returns the string representation.
func (b Bucket) String() string {
	return string(b)
}

// IsValid checks if the Bucket value is valid.
func (b Bucket) IsValid() bool {
	return b == BucketUSD || b == BucketKRW
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// BucketOf resolves the currency bucket of a symbol.
// Every symbol resolves to exactly one bucket.
func BucketOf(symbol string) Bucket {
	s := NormalizeSymbol(symbol)
	if strings.HasSuffix(s, ".KS") || strings.HasSuffix(s, ".KQ") {
		return BucketKRW
	}
	return BucketUSD
}
