// Package reflection hands executed trades to the trade diary.
package reflection

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
)

// Diary stores reflections. Validation of the entry is the diary's job.
type Diary interface {
	Create(ctx context.Context, entry domain.DiaryEntry) (string, error)
}

// Reflection the user's account of a trade.
type Reflection struct {
	Emotion       domain.Emotion   `json:"emotion"`
	Reason        domain.Reason    `json:"reason"`
	Note          string           `json:"note"`
	WhatIf        string           `json:"what_if,omitempty"`
	RecheckPct    *decimal.Decimal `json:"recheck_pct,omitempty"`
	RelatedSymbol string           `json:"related_symbol,omitempty"`
}

// Bridge packages executed trades for the diary.
type Bridge struct {
	diary  Diary
	logger *zap.Logger
}

// NewBridge creates a bridge writing to diary.
func NewBridge(diary Diary, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{diary: diary, logger: logger}
}

// TradeSnapshot packages the fields of an executed trade.
func TradeSnapshot(tx domain.Transaction) domain.TradeSnapshot {
	return domain.TradeSnapshot{
		Type:       tx.Type,
		Symbol:     tx.Symbol,
		Quantity:   tx.Quantity,
		Price:      tx.Price,
		ExecutedAt: tx.Timestamp,
	}
}

// Record writes the reflection on tx to the diary and returns the entry id.
// The related symbol defaults to the traded symbol.
func (b *Bridge) Record(ctx context.Context, tx domain.Transaction, r Reflection) (string, error) {
	if b.diary == nil {
		return "", errors.New("diary is not configured")
	}

	snap := TradeSnapshot(tx)
	related := domain.NormalizeSymbol(r.RelatedSymbol)
	if related == "" {
		related = snap.Symbol
	}

	entry := domain.DiaryEntry{
		Emotion:         r.Emotion,
		Reason:          r.Reason,
		Note:            r.Note,
		WhatIf:          r.WhatIf,
		RecheckPct:      r.RecheckPct,
		RelatedSymbol:   related,
		TradeType:       snap.Type,
		TradeQty:        &snap.Quantity,
		TradePrice:      &snap.Price,
		TradeExecutedAt: &snap.ExecutedAt,
	}

	id, err := b.diary.Create(ctx, entry)
	if err != nil {
		return "", errors.Wrap(err, "create diary entry")
	}

	b.logger.Info("reflection recorded", zap.String("entry_id", id), zap.String("transaction_id", tx.ID))
	return id, nil
}
