// Package ledger keeps the dual-currency paper trading ledger: cash per bucket,
// open positions, the transaction log and the valuation history.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/valuation"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
	"go.uber.org/zap"
)

// StateKey is the persistence key of the ledger state.
const StateKey = "portfolio_state_v1"

// Journal receives every executed trade with the snapshot it produced.
type Journal interface {
	Record(tx domain.Transaction, snapshot domain.ValuationSnapshot) error
	Reset() error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists the ledger state after every trade and restores it on creation.
func WithStore(store kvstore.Store) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithJournal appends executed trades to the journal.
func WithJournal(journal Journal) Option {
	return func(l *Ledger) {
		l.journal = journal
	}
}

// WithCapital overrides the initial cash of both buckets.
func WithCapital(capital domain.Capital) Option {
	return func(l *Ledger) {
		l.capital = capital
	}
}

// WithClock overrides the time source used for transactions and snapshots.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger paper trading ledger. All state is guarded by a single mutex so a trade is
// observed either completely or not at all.
type Ledger struct {
	mu           sync.RWMutex
	logger       *zap.Logger
	store        kvstore.Store
	journal      Journal
	now          func() time.Time
	capital      domain.Capital
	cashUSD      decimal.Decimal
	cashKRW      decimal.Decimal
	positions    map[string]domain.Position
	transactions []domain.Transaction
	history      []domain.ValuationSnapshot
}

// New creates a ledger. When a store is configured the persisted state is restored,
// falling back to the default state if it is absent or unreadable.
func New(logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		logger:  logger,
		now:     time.Now,
		capital: domain.DefaultCapital,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.resetLocked()
	if err := l.restoreState(); err != nil {
		logger.Warn("failed to restore ledger state, starting from defaults", zap.Error(err))
		l.resetLocked()
	}

	logger.Info("ledger init",
		zap.String("cash_usd", l.cashUSD.String()),
		zap.String("cash_krw", l.cashKRW.String()),
		zap.Int("positions", len(l.positions)),
		zap.Int("transactions", len(l.transactions)))

	return l
}

// ExecuteTrade fills a market order at price. quotes is a snapshot of the quote cache used
// to value the post-trade portfolio; the traded symbol is valued at the execution price.
// On any error the ledger is left untouched.
func (l *Ledger) ExecuteTrade(
	tradeType domain.TradeType,
	symbol string,
	quantity, price decimal.Decimal,
	quotes map[string]domain.QuoteEntry,
) (domain.Transaction, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if err := validateOrder(tradeType, symbol, quantity, price); err != nil {
		return domain.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := domain.BucketOf(symbol)
	var err error
	switch tradeType {
	case domain.TradeBuy:
		err = l.buy(bucket, symbol, quantity, price)
	case domain.TradeSell:
		err = l.sell(bucket, symbol, quantity, price)
	}
	if err != nil {
		return domain.Transaction{}, err
	}

	at := l.now()
	tx := domain.Transaction{
		ID:        uuid.NewString(),
		Timestamp: at,
		Type:      tradeType,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
	}
	l.transactions = append(l.transactions, tx)

	snapshot := valuation.Valuate(l.portfolioLocked(), withExecutionPrice(quotes, symbol, price, at)).Snapshot(at, bucket)
	l.history = append(l.history, snapshot)

	l.persist()
	if l.journal != nil {
		if err := l.journal.Record(tx, snapshot); err != nil {
			l.logger.Warn("failed to journal trade", zap.String("id", tx.ID), zap.Error(err))
		}
	}

	l.logger.Info("trade executed",
		zap.String("id", tx.ID),
		zap.String("type", tx.Type.String()),
		zap.String("symbol", symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("bucket", bucket.String()),
		zap.String("cash", l.cashLocked(bucket).String()))

	return tx, nil
}

func validateOrder(tradeType domain.TradeType, symbol string, quantity, price decimal.Decimal) error {
	if !tradeType.IsValid() {
		return errors.Wrapf(domain.ErrInvalidOrder, "unknown trade type %q", tradeType)
	}
	if symbol == "" {
		return errors.Wrap(domain.ErrInvalidOrder, "symbol is required")
	}
	if !quantity.IsPositive() {
		return errors.Wrapf(domain.ErrInvalidOrder, "quantity must be positive, got %s", quantity)
	}
	if !price.IsPositive() {
		return errors.Wrapf(domain.ErrInvalidOrder, "price must be positive, got %s", price)
	}
	return nil
}

func (l *Ledger) buy(bucket domain.Bucket, symbol string, quantity, price decimal.Decimal) error {
	cost := quantity.Mul(price)
	cash := l.cashLocked(bucket)
	if cost.GreaterThan(cash) {
		return errors.Wrapf(domain.ErrInsufficientFunds, "buy %s %s costs %s, %s cash is %s",
			quantity, symbol, cost, bucket, cash)
	}

	if pos, ok := l.positions[symbol]; ok {
		l.positions[symbol] = pos.Add(quantity, price)
	} else {
		pos, err := domain.NewPosition(symbol, quantity, price)
		if err != nil {
			return errors.Wrap(domain.ErrInvalidOrder, err.Error())
		}
		l.positions[symbol] = pos
	}

	l.setCashLocked(bucket, cash.Sub(cost))
	return nil
}

func (l *Ledger) sell(bucket domain.Bucket, symbol string, quantity, price decimal.Decimal) error {
	pos, ok := l.positions[symbol]
	if !ok {
		return errors.Wrapf(domain.ErrInsufficientHoldings, "no position in %s", symbol)
	}
	if quantity.GreaterThan(pos.Quantity) {
		return errors.Wrapf(domain.ErrInsufficientHoldings, "sell %s %s exceeds held %s", quantity, symbol, pos.Quantity)
	}

	remaining := pos.Reduce(quantity)
	if remaining.Quantity.IsZero() {
		delete(l.positions, symbol)
	} else {
		l.positions[symbol] = remaining
	}

	l.setCashLocked(bucket, l.cashLocked(bucket).Add(quantity.Mul(price)))
	return nil
}

// withExecutionPrice copies quotes with symbol priced at the execution price.
func withExecutionPrice(quotes map[string]domain.QuoteEntry, symbol string, price decimal.Decimal, at time.Time) map[string]domain.QuoteEntry {
	out := make(map[string]domain.QuoteEntry, len(quotes)+1)
	for k, v := range quotes {
		out[k] = v
	}
	entry := out[symbol]
	entry.Symbol = symbol
	entry.Price = price
	entry.ObservedAt = at
	out[symbol] = entry
	return out
}

// Portfolio returns a copy of the balances for valuation.
func (l *Ledger) Portfolio() domain.Portfolio {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.portfolioLocked()
}

func (l *Ledger) portfolioLocked() domain.Portfolio {
	positions := make(map[string]domain.Position, len(l.positions))
	for k, v := range l.positions {
		positions[k] = v
	}
	return domain.Portfolio{
		CashUSD:   l.cashUSD,
		CashKRW:   l.cashKRW,
		Positions: positions,
		Capital:   l.capital,
	}
}

// Capital returns the initial cash of both buckets.
func (l *Ledger) Capital() domain.Capital {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.capital
}

// Cash returns the cash balance of the bucket.
func (l *Ledger) Cash(bucket domain.Bucket) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.cashLocked(bucket)
}

func (l *Ledger) cashLocked(bucket domain.Bucket) decimal.Decimal {
	if bucket == domain.BucketKRW {
		return l.cashKRW
	}
	return l.cashUSD
}

func (l *Ledger) setCashLocked(bucket domain.Bucket, amount decimal.Decimal) {
	if bucket == domain.BucketKRW {
		l.cashKRW = amount
		return
	}
	l.cashUSD = amount
}

// Position returns the open position of symbol.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.positions[domain.NormalizeSymbol(symbol)]
	return pos, ok
}

// Positions returns open positions ordered by symbol.
func (l *Ledger) Positions() []domain.Position {
	return l.Portfolio().SortedPositions()
}

// HeldSymbols returns the symbols of open positions, sorted.
func (l *Ledger) HeldSymbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	symbols := make([]string, 0, len(l.positions))
	for s := range l.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Transactions returns the transaction log in the requested order.
func (l *Ledger) Transactions(order domain.Order) []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Transaction, len(l.transactions))
	copy(out, l.transactions)
	if order == domain.NewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Transaction looks a transaction up by id.
func (l *Ledger) Transaction(id string) (domain.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, tx := range l.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, errors.Wrapf(domain.ErrNotFound, "transaction %s", id)
}

// History returns the valuation history, oldest first.
func (l *Ledger) History() []domain.ValuationSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ValuationSnapshot, len(l.history))
	copy(out, l.history)
	return out
}

// Reset returns the ledger to its default state and clears the persisted state and the journal.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// memory is reset only once the persisted state is gone
	if l.store != nil {
		if err := l.store.Delete(StateKey); err != nil {
			return errors.Wrap(err, "delete ledger state")
		}
	}
	if l.journal != nil {
		if err := l.journal.Reset(); err != nil {
			return errors.Wrap(err, "reset journal")
		}
	}

	l.resetLocked()
	l.logger.Info("ledger reset")
	return nil
}

func (l *Ledger) resetLocked() {
	l.cashUSD = l.capital.USD
	l.cashKRW = l.capital.KRW
	l.positions = make(map[string]domain.Position)
	l.transactions = nil
	l.history = []domain.ValuationSnapshot{
		domain.NewValuationSnapshot(l.now(), domain.BucketUSD, l.capital.USD, l.capital.KRW),
	}
}
