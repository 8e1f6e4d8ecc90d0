package diary

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

func TestWALStore_CreateAndEntries(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	qty := decimal.NewFromInt(10)
	price := decimal.RequireFromString("185.50")
	id, err := store.Create(context.Background(), domain.DiaryEntry{
		Emotion:       domain.EmotionConfident,
		Reason:        domain.ReasonAnalysis,
		Note:          "earnings beat",
		RelatedSymbol: "AAPL",
		TradeType:     domain.TradeBuy,
		TradeQty:      &qty,
		TradePrice:    &price,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, fixed, entries[0].Date)
	assert.Equal(t, "AAPL", entries[0].RelatedSymbol)
	require.NotNil(t, entries[0].TradeQty)
	assert.True(t, entries[0].TradeQty.Equal(qty))
	require.NotNil(t, entries[0].TradePrice)
	assert.True(t, entries[0].TradePrice.Equal(price))
}

func TestWALStore_CreateRejectsInvalidEntry(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	tests := []struct {
		name  string
		entry domain.DiaryEntry
	}{
		{"unknown emotion", domain.DiaryEntry{Emotion: "bored", Reason: domain.ReasonNews, Note: "x"}},
		{"unknown reason", domain.DiaryEntry{Emotion: domain.EmotionNeutral, Reason: "tip", Note: "x"}},
		{"empty note", domain.DiaryEntry{Emotion: domain.EmotionNeutral, Reason: domain.ReasonNews}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(context.Background(), tt.entry)
			assert.ErrorIs(t, err, domain.ErrInvalidDiaryEntry)
		})
	}

	entries, err := store.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWALStore_CreateHonorsCancelledContext(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Create(ctx, domain.DiaryEntry{Emotion: domain.EmotionNeutral, Reason: domain.ReasonNews, Note: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
