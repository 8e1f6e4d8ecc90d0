// Package quotecache holds the last known live quote per symbol and the poll loop that refreshes it.
package quotecache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
	"go.uber.org/zap"
)

// SnapshotKey is the persistence key of the cache snapshot.
const SnapshotKey = "live_quotes_v1"

// Cache last known quote per symbol. Merges are key-by-key: a symbol missing from a
// poll result keeps its previous entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]domain.QuoteEntry
	store   kvstore.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewCache creates a cache and restores the persisted snapshot if store is set.
func NewCache(store kvstore.Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cache{
		entries: make(map[string]domain.QuoteEntry),
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	if err := c.restore(); err != nil {
		logger.Warn("failed to restore quote cache, starting empty", zap.Error(err))
		c.entries = make(map[string]domain.QuoteEntry)
	}

	return c
}

// Get returns the cached quote of symbol.
func (c *Cache) Get(symbol string) (domain.QuoteEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[domain.NormalizeSymbol(symbol)]
	return e, ok
}

// Snapshot returns a copy of all cached quotes.
func (c *Cache) Snapshot() map[string]domain.QuoteEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.QuoteEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Symbols returns the cached symbols, sorted.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge overwrites the entries of the returned symbols and keeps every other entry.
// Quotes without a positive price are ignored. It returns the number of entries written.
func (c *Cache) Merge(quotes map[string]domain.Quote) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := c.now()
	applied := 0
	for symbol, q := range quotes {
		symbol = domain.NormalizeSymbol(symbol)
		if symbol == "" || !q.IsValid() {
			c.logger.Debug("ignoring unusable quote", zap.String("symbol", symbol), zap.String("price", q.Price.String()))
			continue
		}
		c.entries[symbol] = domain.QuoteEntry{
			Symbol:     symbol,
			Price:      q.Price,
			ChangePct:  q.ChangePct,
			ObservedAt: at,
		}
		applied++
	}

	if applied > 0 {
		c.persist()
	}
	return applied
}

// Reset drops every entry and the persisted snapshot.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]domain.QuoteEntry)
	if c.store == nil {
		return nil
	}
	return errors.Wrap(c.store.Delete(SnapshotKey), "delete quote snapshot")
}

func (c *Cache) persist() {
	if c.store == nil {
		return
	}

	payload, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warn("failed to encode quote snapshot", zap.Error(err))
		return
	}
	if err := c.store.Save(SnapshotKey, payload); err != nil {
		c.logger.Warn("failed to persist quote snapshot", zap.Error(err))
	}
}

func (c *Cache) restore() error {
	if c.store == nil {
		return nil
	}

	payload, err := c.store.Load(SnapshotKey)
	if err != nil {
		return errors.Wrap(err, "load quote snapshot")
	}
	if payload == nil {
		return nil
	}

	var entries map[string]domain.QuoteEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return errors.Wrap(err, "decode quote snapshot")
	}

	restored := make(map[string]domain.QuoteEntry, len(entries))
	for symbol, e := range entries {
		symbol = domain.NormalizeSymbol(symbol)
		if symbol == "" || !e.Price.IsPositive() {
			continue
		}
		e.Symbol = symbol
		restored[symbol] = e
	}

	c.mu.Lock()
	c.entries = restored
	c.mu.Unlock()

	return nil
}
