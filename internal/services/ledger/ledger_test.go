package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingJournal struct {
	txs       []domain.Transaction
	snapshots []domain.ValuationSnapshot
	resets    int
	err       error
}

func (j *recordingJournal) Record(tx domain.Transaction, snapshot domain.ValuationSnapshot) error {
	if j.err != nil {
		return j.err
	}
	j.txs = append(j.txs, tx)
	j.snapshots = append(j.snapshots, snapshot)
	return nil
}

func (j *recordingJournal) Reset() error {
	j.resets++
	j.txs = nil
	j.snapshots = nil
	return nil
}

type undeletableStore struct {
	*kvstore.MemoryStore
}

func (undeletableStore) Delete(string) error {
	return errors.New("disk is read-only")
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestLedger_New(t *testing.T) {
	l := New(zap.NewNop(), WithClock(fixedClock()))

	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("100000")))
	assert.True(t, l.Cash(domain.BucketKRW).Equal(d("100000000")))
	assert.Empty(t, l.Positions())
	assert.Empty(t, l.Transactions(domain.OldestFirst))

	history := l.History()
	require.Len(t, history, 1)
	assert.Equal(t, "2026-10-15", history[0].Date)
	assert.True(t, history[0].Value.Equal(d("100000")))
}

func TestLedger_AAPLScenario(t *testing.T) {
	l := New(nil)

	_, err := l.ExecuteTrade(domain.TradeBuy, "AAPL", d("10"), d("185.50"), nil)
	require.NoError(t, err)
	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("98145.00")))

	pos, ok := l.Position("AAPL")
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(d("10")))
	assert.True(t, pos.AvgPrice.Equal(d("185.50")))

	_, err = l.ExecuteTrade(domain.TradeBuy, "AAPL", d("5"), d("190"), nil)
	require.NoError(t, err)
	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("97195.00")))

	pos, ok = l.Position("AAPL")
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(d("15")))
	assert.True(t, pos.AvgPrice.Equal(d("187.00")), pos.AvgPrice.String())

	_, err = l.ExecuteTrade(domain.TradeSell, "AAPL", d("15"), d("200"), nil)
	require.NoError(t, err)
	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("100195.00")))

	_, ok = l.Position("AAPL")
	assert.False(t, ok)
	assert.Empty(t, l.HeldSymbols())
	assert.Len(t, l.Transactions(domain.OldestFirst), 3)
	assert.Len(t, l.History(), 4)
	assert.True(t, l.Cash(domain.BucketKRW).Equal(d("100000000")))
}

func TestLedger_InsufficientFundsLeavesStateIdentical(t *testing.T) {
	journal := &recordingJournal{}
	store := kvstore.NewMemoryStore()
	l := New(nil, WithJournal(journal), WithStore(store))

	_, err := l.ExecuteTrade(domain.TradeBuy, "AAPL", d("10"), d("185.50"), nil)
	require.NoError(t, err)

	portfolio := l.Portfolio()
	txs := l.Transactions(domain.OldestFirst)
	history := l.History()
	persisted, err := store.Load(StateKey)
	require.NoError(t, err)

	_, err = l.ExecuteTrade(domain.TradeBuy, "NVDA", d("1000"), d("950"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	assert.Equal(t, portfolio, l.Portfolio())
	assert.Equal(t, txs, l.Transactions(domain.OldestFirst))
	assert.Equal(t, history, l.History())
	assert.Len(t, journal.txs, 1)

	after, err := store.Load(StateKey)
	require.NoError(t, err)
	assert.Equal(t, persisted, after)
}

func TestLedger_BuyUsesWholeCash(t *testing.T) {
	l := New(nil, WithCapital(domain.Capital{USD: d("1000"), KRW: d("0")}))

	_, err := l.ExecuteTrade(domain.TradeBuy, "KO", d("16"), d("62.50"), nil)
	require.NoError(t, err)
	assert.True(t, l.Cash(domain.BucketUSD).IsZero())

	_, err = l.ExecuteTrade(domain.TradeBuy, "005930.KS", d("1"), d("1"), nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestLedger_InsufficientHoldings(t *testing.T) {
	l := New(nil)

	_, err := l.ExecuteTrade(domain.TradeSell, "TSLA", d("1"), d("175.80"), nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientHoldings)

	_, err = l.ExecuteTrade(domain.TradeBuy, "TSLA", d("2"), d("175.80"), nil)
	require.NoError(t, err)

	_, err = l.ExecuteTrade(domain.TradeSell, "TSLA", d("3"), d("175.80"), nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientHoldings)

	pos, ok := l.Position("TSLA")
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(d("2")))
	assert.Len(t, l.Transactions(domain.OldestFirst), 1)
}

func TestLedger_InvalidOrder(t *testing.T) {
	tests := []struct {
		name      string
		tradeType domain.TradeType
		symbol    string
		quantity  string
		price     string
	}{
		{"zero quantity", domain.TradeBuy, "AAPL", "0", "185"},
		{"negative quantity", domain.TradeBuy, "AAPL", "-1", "185"},
		{"zero price", domain.TradeBuy, "AAPL", "1", "0"},
		{"negative price", domain.TradeSell, "AAPL", "1", "-5"},
		{"empty symbol", domain.TradeBuy, "  ", "1", "185"},
		{"unknown type", domain.TradeType("HOLD"), "AAPL", "1", "185"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(nil)
			_, err := l.ExecuteTrade(tt.tradeType, tt.symbol, d(tt.quantity), d(tt.price), nil)
			assert.ErrorIs(t, err, domain.ErrInvalidOrder)
			assert.Empty(t, l.Transactions(domain.OldestFirst))
			assert.True(t, l.Cash(domain.BucketUSD).Equal(d("100000")))
		})
	}
}

func TestLedger_PartialSellKeepsAvgPrice(t *testing.T) {
	l := New(nil)

	_, err := l.ExecuteTrade(domain.TradeBuy, "GOOGL", d("10"), d("172.30"), nil)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(domain.TradeSell, "GOOGL", d("4"), d("180"), nil)
	require.NoError(t, err)

	pos, ok := l.Position("GOOGL")
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(d("6")))
	assert.True(t, pos.AvgPrice.Equal(d("172.30")))
}

func TestLedger_BuyAfterFullExitStartsFreshBasis(t *testing.T) {
	l := New(nil)

	_, err := l.ExecuteTrade(domain.TradeBuy, "JNJ", d("10"), d("100"), nil)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(domain.TradeSell, "JNJ", d("10"), d("120"), nil)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(domain.TradeBuy, "JNJ", d("2"), d("150"), nil)
	require.NoError(t, err)

	pos, ok := l.Position("JNJ")
	require.True(t, ok)
	assert.True(t, pos.Quantity.Equal(d("2")))
	assert.True(t, pos.AvgPrice.Equal(d("150")))
}

func TestLedger_RoutesKRWSymbols(t *testing.T) {
	l := New(nil)

	tx, err := l.ExecuteTrade(domain.TradeBuy, "005930.ks", d("10"), d("70000"), nil)
	require.NoError(t, err)
	assert.Equal(t, "005930.KS", tx.Symbol)
	assert.Equal(t, domain.BucketKRW, tx.Bucket())

	assert.True(t, l.Cash(domain.BucketKRW).Equal(d("99300000")))
	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("100000")))

	history := l.History()
	last := history[len(history)-1]
	assert.Equal(t, domain.BucketKRW, last.Bucket)
	assert.True(t, last.Value.Equal(d("100000000")))
}

func TestLedger_SnapshotUsesExecutionPrice(t *testing.T) {
	journal := &recordingJournal{}
	l := New(nil, WithJournal(journal), WithClock(fixedClock()))

	quotes := map[string]domain.QuoteEntry{
		"AAPL": {Symbol: "AAPL", Price: d("150")},
		"TSLA": {Symbol: "TSLA", Price: d("180")},
	}
	_, err := l.ExecuteTrade(domain.TradeBuy, "TSLA", d("10"), d("175.80"), quotes)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(domain.TradeBuy, "AAPL", d("10"), d("185.50"), quotes)
	require.NoError(t, err)

	history := l.History()
	require.Len(t, history, 3)
	// TSLA marked at the cached 180, AAPL at the 185.50 fill, not the stale cached 150.
	// cash 100000 - 1758 - 1855 = 96387; holdings 1800 + 1855 = 3655
	assert.True(t, history[2].Value.Equal(d("100042")), history[2].Value.String())
	assert.Equal(t, "2026-10-15", history[2].Date)

	require.Len(t, journal.snapshots, 2)
	assert.Equal(t, history[2], journal.snapshots[1])
	assert.True(t, quotes["AAPL"].Price.Equal(d("150")))
}

func TestLedger_JournalFailureDoesNotRollBack(t *testing.T) {
	journal := &recordingJournal{err: errors.New("disk full")}
	l := New(nil, WithJournal(journal))

	_, err := l.ExecuteTrade(domain.TradeBuy, "KO", d("1"), d("62.50"), nil)
	require.NoError(t, err)
	assert.Len(t, l.Transactions(domain.OldestFirst), 1)
}

func TestLedger_TransactionsOrder(t *testing.T) {
	l := New(nil)

	first, err := l.ExecuteTrade(domain.TradeBuy, "KO", d("1"), d("62.50"), nil)
	require.NoError(t, err)
	second, err := l.ExecuteTrade(domain.TradeBuy, "JNJ", d("1"), d("148.20"), nil)
	require.NoError(t, err)

	oldest := l.Transactions(domain.OldestFirst)
	newest := l.Transactions(domain.NewestFirst)
	require.Len(t, oldest, 2)
	assert.Equal(t, first.ID, oldest[0].ID)
	assert.Equal(t, second.ID, newest[0].ID)

	got, err := l.Transaction(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "JNJ", got.Symbol)

	_, err = l.Transaction("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_RandomSequenceKeepsInvariants(t *testing.T) {
	l := New(nil, WithCapital(domain.Capital{USD: d("5000"), KRW: d("5000000")}))
	rnd := rand.New(rand.NewSource(42))
	symbols := []string{"AAPL", "TSLA", "005930.KS", "123456.KQ"}

	for i := 0; i < 500; i++ {
		symbol := symbols[rnd.Intn(len(symbols))]
		tradeType := domain.TradeBuy
		if rnd.Intn(2) == 0 {
			tradeType = domain.TradeSell
		}
		qty := decimal.NewFromInt(int64(rnd.Intn(20) + 1))
		price := decimal.NewFromInt(int64(rnd.Intn(500) + 1))
		if domain.BucketOf(symbol) == domain.BucketKRW {
			price = price.Mul(decimal.NewFromInt(1000))
		}

		_, err := l.ExecuteTrade(tradeType, symbol, qty, price, nil)
		if err != nil {
			require.True(t,
				errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrInsufficientHoldings),
				err.Error())
		}

		assert.False(t, l.Cash(domain.BucketUSD).IsNegative())
		assert.False(t, l.Cash(domain.BucketKRW).IsNegative())
		for _, pos := range l.Positions() {
			assert.True(t, pos.Quantity.IsPositive())
			assert.True(t, pos.AvgPrice.IsPositive())
		}
	}
}

func TestLedger_Reset(t *testing.T) {
	journal := &recordingJournal{}
	store := kvstore.NewMemoryStore()
	l := New(nil, WithStore(store), WithJournal(journal))

	_, err := l.ExecuteTrade(domain.TradeBuy, "AAPL", d("10"), d("185.50"), nil)
	require.NoError(t, err)

	require.NoError(t, l.Reset())

	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("100000")))
	assert.Empty(t, l.Positions())
	assert.Empty(t, l.Transactions(domain.OldestFirst))
	assert.Len(t, l.History(), 1)
	assert.Equal(t, 1, journal.resets)

	payload, err := store.Load(StateKey)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestLedger_ResetKeepsStateWhenDeleteFails(t *testing.T) {
	journal := &recordingJournal{}
	l := New(nil, WithStore(undeletableStore{kvstore.NewMemoryStore()}), WithJournal(journal))

	_, err := l.ExecuteTrade(domain.TradeBuy, "AAPL", d("10"), d("185.50"), nil)
	require.NoError(t, err)

	require.Error(t, l.Reset())

	assert.True(t, l.Cash(domain.BucketUSD).Equal(d("98145.00")))
	assert.Len(t, l.Positions(), 1)
	assert.Len(t, l.Transactions(domain.OldestFirst), 1)
	assert.Equal(t, 0, journal.resets)
}
