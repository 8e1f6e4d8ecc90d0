package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout day granularity used by valuation history.
const DateLayout = "2006-01-02"

// ValuationSnapshot point-in-time equity record appended on every trade.
// Value is the equity of Bucket; USD and KRW are kept apart and never summed.
type ValuationSnapshot struct {
	Date      string          `json:"date"`
	Timestamp time.Time       `json:"ts"`
	Bucket    Bucket          `json:"bucket"`
	Value     decimal.Decimal `json:"value"`
	USD       decimal.Decimal `json:"usd"`
	KRW       decimal.Decimal `json:"krw"`
}

// NewValuationSnapshot creates a new ValuationSnapshot.
func NewValuationSnapshot(at time.Time, bucket Bucket, usd, krw decimal.Decimal) ValuationSnapshot {
	value := usd
	if bucket == BucketKRW {
		value = krw
	}

	return ValuationSnapshot{
		Date:      at.Format(DateLayout),
		Timestamp: at,
		Bucket:    bucket,
		Value:     value,
		USD:       usd,
		KRW:       krw,
	}
}

// ValuationRecord bundles a snapshot with its journal index.
type ValuationRecord struct {
	Index    uint64
	Snapshot ValuationSnapshot
}

// TransactionRecord bundles a transaction with its journal index.
type TransactionRecord struct {
	Index       uint64
	Transaction Transaction
}
