package internal

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/ledger"
	"github.com/vadiminshakov/papertrade/internal/services/quotecache"
	"github.com/vadiminshakov/papertrade/internal/services/reflection"
	"github.com/vadiminshakov/papertrade/internal/services/valuation"
)

type searchProvider interface {
	Search(ctx context.Context, query string) ([]domain.Stock, error)
}

type valuationJournal interface {
	ValuationsAfter(index uint64) ([]domain.ValuationRecord, error)
	CurrentIndex() uint64
	Generation() uint64
}

type diaryStore interface {
	reflection.Diary
	Entries() ([]domain.DiaryEntry, error)
}

// Components collaborators of a PaperTrader. Journal, Diary and Search are optional.
type Components struct {
	Ledger    *ledger.Ledger
	Cache     *quotecache.Cache
	Poller    *quotecache.Poller
	Search    searchProvider
	Journal   valuationJournal
	Diary     diaryStore
	Watchlist []string
	Closers   []io.Closer
}

// PaperTrader owns the ledger and the quote cache and keeps the poll loop pointed at
// the symbols that matter: the watchlist plus every held symbol.
type PaperTrader struct {
	ledger  *ledger.Ledger
	cache   *quotecache.Cache
	poller  *quotecache.Poller
	bridge  *reflection.Bridge
	search  searchProvider
	journal valuationJournal
	diary   diaryStore
	closers []io.Closer
	logger  *zap.Logger

	mu          sync.Mutex
	watchlist   []string
	runCtx      context.Context
	searchCache map[string][]domain.Stock
	names       map[string]string
}

// NewPaperTrader creates a PaperTrader from its components.
func NewPaperTrader(c Components, logger *zap.Logger) (*PaperTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.Ledger == nil || c.Cache == nil || c.Poller == nil {
		return nil, errors.New("ledger, quote cache and poller are required")
	}

	var diary reflection.Diary
	if c.Diary != nil {
		diary = c.Diary
	}

	return &PaperTrader{
		ledger:      c.Ledger,
		cache:       c.Cache,
		poller:      c.Poller,
		bridge:      reflection.NewBridge(diary, logger),
		search:      c.Search,
		journal:     c.Journal,
		diary:       c.Diary,
		closers:     c.Closers,
		logger:      logger,
		watchlist:   normalize(c.Watchlist),
		searchCache: make(map[string][]domain.Stock),
		names:       make(map[string]string),
	}, nil
}

// Run starts polling and blocks until ctx is done.
func (p *PaperTrader) Run(ctx context.Context) error {
	p.mu.Lock()
	p.runCtx = ctx
	p.mu.Unlock()

	p.refreshPolling()

	<-ctx.Done()

	p.mu.Lock()
	p.runCtx = nil
	p.mu.Unlock()
	p.poller.Stop()

	p.logger.Info("paper trader stopped")
	return ctx.Err()
}

// refreshPolling restarts the poll loop when the interesting symbol set changed.
func (p *PaperTrader) refreshPolling() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runCtx == nil {
		return
	}

	symbols := p.interestingLocked()
	if active := p.poller.Active(); active != nil && quotecache.SameSymbols(active.Symbols(), symbols) {
		return
	}
	p.poller.Start(p.runCtx, symbols)
}

// InterestingSymbols returns the watchlist plus held symbols, sorted.
func (p *PaperTrader) InterestingSymbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.interestingLocked()
}

func (p *PaperTrader) interestingLocked() []string {
	return normalize(append(append([]string{}, p.watchlist...), p.ledger.HeldSymbols()...))
}

// Watch replaces the watchlist, the symbols currently on display.
func (p *PaperTrader) Watch(symbols ...string) {
	p.mu.Lock()
	p.watchlist = normalize(symbols)
	p.mu.Unlock()

	p.refreshPolling()
}

// Watchlist returns the current watchlist.
func (p *PaperTrader) Watchlist() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.watchlist))
	copy(out, p.watchlist)
	return out
}

// ExecuteTrade fills a market order against the ledger, valuing the portfolio with the
// current quote cache.
func (p *PaperTrader) ExecuteTrade(tradeType domain.TradeType, symbol string, quantity, price decimal.Decimal) (domain.Transaction, error) {
	tx, err := p.ledger.ExecuteTrade(tradeType, symbol, quantity, price, p.cache.Snapshot())
	if err != nil {
		return domain.Transaction{}, err
	}

	p.refreshPolling()
	return tx, nil
}

// Reflect records a reflection on the transaction with the given id.
func (p *PaperTrader) Reflect(ctx context.Context, transactionID string, r reflection.Reflection) (string, error) {
	tx, err := p.ledger.Transaction(transactionID)
	if err != nil {
		return "", err
	}
	return p.bridge.Record(ctx, tx, r)
}

// DiaryEntries returns every recorded reflection.
func (p *PaperTrader) DiaryEntries() ([]domain.DiaryEntry, error) {
	if p.diary == nil {
		return nil, errors.New("diary is not configured")
	}
	return p.diary.Entries()
}

// Valuation values the ledger with the current quote cache.
func (p *PaperTrader) Valuation() valuation.Result {
	return valuation.Valuate(p.ledger.Portfolio(), p.cache.Snapshot())
}

// Quotes returns every cached quote.
func (p *PaperTrader) Quotes() map[string]domain.QuoteEntry {
	return p.cache.Snapshot()
}

// Quote returns the cached quote of symbol.
func (p *PaperTrader) Quote(symbol string) (domain.QuoteEntry, bool) {
	return p.cache.Get(symbol)
}

// Positions returns open positions ordered by symbol.
func (p *PaperTrader) Positions() []domain.Position {
	return p.ledger.Positions()
}

// Transactions returns the transaction log in the requested order.
func (p *PaperTrader) Transactions(order domain.Order) []domain.Transaction {
	return p.ledger.Transactions(order)
}

// History returns the valuation history.
func (p *PaperTrader) History() []domain.ValuationSnapshot {
	return p.ledger.History()
}

// Cash returns the cash balance of the bucket.
func (p *PaperTrader) Cash(bucket domain.Bucket) decimal.Decimal {
	return p.ledger.Cash(bucket)
}

// Capital returns the initial cash of both buckets.
func (p *PaperTrader) Capital() domain.Capital {
	return p.ledger.Capital()
}

// ValuationsAfter returns journaled valuation snapshots written after index.
func (p *PaperTrader) ValuationsAfter(index uint64) ([]domain.ValuationRecord, error) {
	if p.journal == nil {
		return nil, nil
	}
	return p.journal.ValuationsAfter(index)
}

// JournalIndex returns the latest journal index.
func (p *PaperTrader) JournalIndex() uint64 {
	if p.journal == nil {
		return 0
	}
	return p.journal.CurrentIndex()
}

// JournalGeneration changes whenever the journal is reset and its indexes restart.
func (p *PaperTrader) JournalGeneration() uint64 {
	if p.journal == nil {
		return 0
	}
	return p.journal.Generation()
}

// Search looks stocks up. Results are cached per query and feed DisplayName.
func (p *PaperTrader) Search(ctx context.Context, query string) ([]domain.Stock, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, nil
	}
	if p.search == nil {
		return nil, errors.New("search is not configured")
	}

	p.mu.Lock()
	cached, ok := p.searchCache[key]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	stocks, err := p.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.searchCache[key] = stocks
	for _, s := range stocks {
		if s.Name != "" {
			p.names[s.Symbol] = s.Name
		}
	}
	p.mu.Unlock()

	return stocks, nil
}

// DisplayName returns the company name of symbol, or the symbol itself when unknown.
func (p *PaperTrader) DisplayName(ctx context.Context, symbol string) string {
	symbol = domain.NormalizeSymbol(symbol)

	p.mu.Lock()
	name, ok := p.names[symbol]
	p.mu.Unlock()
	if ok {
		return name
	}

	if _, err := p.Search(ctx, symbol); err != nil {
		p.logger.Debug("display name lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return symbol
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.names[symbol]; ok {
		return name
	}
	return symbol
}

// Reset returns the ledger and the quote cache to their defaults.
func (p *PaperTrader) Reset() error {
	if err := p.ledger.Reset(); err != nil {
		return err
	}
	if err := p.cache.Reset(); err != nil {
		return err
	}

	p.refreshPolling()
	return nil
}

// Close stops polling and releases storage.
func (p *PaperTrader) Close() error {
	p.poller.Stop()

	var firstErr error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = domain.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
