package internal

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/services/ledger"
	"github.com/vadiminshakov/papertrade/internal/services/quotecache"
	"github.com/vadiminshakov/papertrade/internal/storage/diary"
	"github.com/vadiminshakov/papertrade/internal/storage/journal"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
)

// New wires a PaperTrader from the config: persistence store, journal, diary,
// market data provider, ledger, quote cache and poller.
func New(cfg config.Config, logger *zap.Logger) (*PaperTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var closers []io.Closer
	fail := func(err error) (*PaperTrader, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	store, err := kvstore.Open(cfg.Storage, cfg.StateDir)
	if err != nil {
		return fail(errors.Wrap(err, "open state store"))
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}

	journalStore, err := journal.NewWALStore(cfg.JournalDir)
	if err != nil {
		return fail(errors.Wrap(err, "open journal"))
	}
	closers = append(closers, journalStore)

	diaryStore, err := diary.NewWALStore(cfg.DiaryDir)
	if err != nil {
		return fail(errors.Wrap(err, "open diary"))
	}
	closers = append(closers, diaryStore)

	provider, err := newMarketDataProvider(cfg, logger)
	if err != nil {
		return fail(err)
	}

	l := ledger.New(logger.Named("ledger"),
		ledger.WithStore(store),
		ledger.WithJournal(journalStore),
		ledger.WithCapital(cfg.InitialCapital),
	)
	cache := quotecache.NewCache(store, logger.Named("quotes"))
	poller := quotecache.NewPoller(cache, provider, cfg.PollInterval, cfg.FetchTimeout, logger.Named("poller"))

	pt, err := NewPaperTrader(Components{
		Ledger:    l,
		Cache:     cache,
		Poller:    poller,
		Search:    provider,
		Journal:   journalStore,
		Diary:     diaryStore,
		Watchlist: cfg.Watchlist,
		Closers:   closers,
	}, logger)
	if err != nil {
		return fail(err)
	}
	return pt, nil
}
