package quotecache

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quote(price, change string) domain.Quote {
	return domain.Quote{Price: d(price), ChangePct: d(change)}
}

func TestCache_MergeKeepsOmittedSymbols(t *testing.T) {
	c := NewCache(nil, nil)

	c.Merge(map[string]domain.Quote{
		"AAPL": quote("185.50", "1.2"),
		"TSLA": quote("175.80", "3.5"),
	})
	c.Merge(map[string]domain.Quote{
		"AAPL": quote("190", "2.4"),
	})

	aapl, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.True(t, aapl.Price.Equal(d("190")))
	assert.True(t, aapl.ChangePct.Equal(d("2.4")))

	tsla, ok := c.Get("tsla")
	require.True(t, ok)
	assert.True(t, tsla.Price.Equal(d("175.80")))
}

func TestCache_MergeIgnoresUnusablePrices(t *testing.T) {
	c := NewCache(nil, nil)
	c.Merge(map[string]domain.Quote{"AAPL": quote("185.50", "1.2")})

	applied := c.Merge(map[string]domain.Quote{
		"AAPL": quote("0", "0"),
		"KO":   quote("-1", "0"),
		"":     quote("10", "0"),
	})

	assert.Equal(t, 0, applied)
	aapl, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.True(t, aapl.Price.Equal(d("185.50")))
	_, ok = c.Get("KO")
	assert.False(t, ok)
}

func TestCache_SnapshotIsCopy(t *testing.T) {
	c := NewCache(nil, nil)
	c.Merge(map[string]domain.Quote{"AAPL": quote("185.50", "1.2")})

	snap := c.Snapshot()
	delete(snap, "AAPL")

	_, ok := c.Get("AAPL")
	assert.True(t, ok)
	assert.Equal(t, []string{"AAPL"}, c.Symbols())
}

func TestCache_PersistAndRestore(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c := NewCache(store, nil)
	c.Merge(map[string]domain.Quote{
		"AAPL":      quote("185.50", "1.2"),
		"005930.KS": quote("70000", "-0.4"),
	})

	restored := NewCache(store, nil)

	aapl, ok := restored.Get("AAPL")
	require.True(t, ok)
	assert.True(t, aapl.Price.Equal(d("185.50")))
	samsung, ok := restored.Get("005930.KS")
	require.True(t, ok)
	assert.True(t, samsung.ChangePct.Equal(d("-0.4")))
}

func TestCache_RestoreCorruptSnapshot(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Save(SnapshotKey, []byte("not json")))

	c := NewCache(store, nil)
	assert.Empty(t, c.Snapshot())
}

func TestCache_RestoreSkipsInvalidEntries(t *testing.T) {
	store := kvstore.NewMemoryStore()
	payload := `{"aapl":{"price":"185.5","change_pct":"1.2"},"KO":{"price":"0","change_pct":"0"}}`
	require.NoError(t, store.Save(SnapshotKey, []byte(payload)))

	c := NewCache(store, nil)
	assert.Equal(t, []string{"AAPL"}, c.Symbols())
}

func TestCache_Reset(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c := NewCache(store, nil)
	c.Merge(map[string]domain.Quote{"AAPL": quote("185.50", "1.2")})

	require.NoError(t, c.Reset())
	assert.Empty(t, c.Snapshot())

	payload, err := store.Load(SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, payload)
}
