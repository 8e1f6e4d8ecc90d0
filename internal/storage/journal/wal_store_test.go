package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

func testTransaction(id string) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Timestamp: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Type:      domain.TradeBuy,
		Symbol:    "AAPL",
		Quantity:  decimal.NewFromInt(10),
		Price:     decimal.RequireFromString("185.50"),
	}
}

func TestWALStore_RecordAndRead(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	snap := domain.NewValuationSnapshot(at, domain.BucketUSD, decimal.NewFromInt(100000), decimal.NewFromInt(100000000))

	require.NoError(t, store.Record(testTransaction("tx-1"), snap))
	require.NoError(t, store.Record(testTransaction("tx-2"), snap))
	assert.Equal(t, uint64(4), store.CurrentIndex())

	valuations, err := store.ValuationsAfter(0)
	require.NoError(t, err)
	require.Len(t, valuations, 2)
	assert.Equal(t, uint64(2), valuations[0].Index)
	assert.Equal(t, "2026-10-15", valuations[0].Snapshot.Date)
	assert.True(t, valuations[0].Snapshot.Value.Equal(decimal.NewFromInt(100000)))

	later, err := store.ValuationsAfter(valuations[0].Index)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, uint64(4), later[0].Index)

	txs, err := store.TransactionsAfter(0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "tx-1", txs[0].Transaction.ID)
	assert.Equal(t, "tx-2", txs[1].Transaction.ID)
}

func TestWALStore_RecordRequiresID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Record(domain.Transaction{}, domain.ValuationSnapshot{})
	assert.Error(t, err)
	assert.Equal(t, uint64(0), store.CurrentIndex())
}

func TestWALStore_Reset(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(testTransaction("tx-1"), domain.ValuationSnapshot{}))
	assert.Equal(t, uint64(0), store.Generation())
	require.NoError(t, store.Reset())
	assert.Equal(t, uint64(0), store.CurrentIndex())
	assert.Equal(t, uint64(1), store.Generation())

	txs, err := store.TransactionsAfter(0)
	require.NoError(t, err)
	assert.Empty(t, txs)

	require.NoError(t, store.Record(testTransaction("tx-2"), domain.ValuationSnapshot{}))
	assert.Equal(t, uint64(2), store.CurrentIndex())
}

func TestWALStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(testTransaction("tx-1"), domain.ValuationSnapshot{}))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	txs, err := reopened.TransactionsAfter(0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx-1", txs[0].Transaction.ID)
}
