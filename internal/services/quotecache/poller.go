package quotecache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 3 * time.Minute
	DefaultFetchTimeout = 15 * time.Second
)

// Provider fetches live quotes. It may omit symbols it cannot resolve.
type Provider interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
}

// Poller runs at most one poll loop feeding the cache.
type Poller struct {
	cache        *Cache
	provider     Provider
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	active *Poll
}

// NewPoller creates a poller. Non-positive durations fall back to the defaults.
func NewPoller(cache *Cache, provider Provider, interval, fetchTimeout time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &Poller{
		cache:        cache,
		provider:     provider,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Poll handle of a running poll loop.
type Poll struct {
	symbols []string
	cancel  context.CancelFunc
	done    chan struct{}

	// mu serialises merges with Stop so nothing is written once Stop returns.
	mu      sync.Mutex
	stopped bool
}

// Stop cancels the loop and its in-flight fetch. A fetch result that arrives later is
// discarded. Stop does not wait for the goroutine; use Done for that.
func (p *Poll) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
}

// Done is closed when the loop goroutine exits.
func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Symbols returns the symbol set the loop polls.
func (p *Poll) Symbols() []string {
	out := make([]string, len(p.symbols))
	copy(out, p.symbols)
	return out
}

// Start stops the active loop, if any, and starts a new one for symbols.
// The first fetch happens immediately, then every poll interval.
func (p *Poller) Start(ctx context.Context, symbols []string) *Poll {
	loopCtx, cancel := context.WithCancel(ctx)
	poll := &Poll{
		symbols: normalizeSymbols(symbols),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	p.mu.Lock()
	if p.active != nil {
		p.active.Stop()
	}
	p.active = poll
	p.mu.Unlock()

	p.logger.Info("starting quote poll",
		zap.Strings("symbols", poll.symbols),
		zap.Duration("poll_interval", p.interval))

	go p.run(loopCtx, poll)

	return poll
}

// Stop stops the active loop, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		p.active.Stop()
		p.active = nil
	}
}

// Active returns the running poll, or nil.
func (p *Poller) Active() *Poll {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

func (p *Poller) run(ctx context.Context, poll *Poll) {
	defer close(poll.done)

	p.fetch(ctx, poll)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("quote poll stopped", zap.Strings("symbols", poll.symbols))
			return
		case <-ticker.C:
			p.fetch(ctx, poll)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, poll *Poll) {
	if len(poll.symbols) == 0 {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	quotes, err := p.provider.GetQuotes(fetchCtx, poll.symbols)
	cancel()

	poll.mu.Lock()
	defer poll.mu.Unlock()

	if poll.stopped {
		p.logger.Debug("discarding quotes fetched after stop", zap.Strings("symbols", poll.symbols))
		return
	}
	if err != nil {
		p.logger.Warn("quote fetch failed, keeping cached quotes", zap.Strings("symbols", poll.symbols), zap.Error(err))
		return
	}
	if len(quotes) == 0 {
		p.logger.Warn("quote fetch returned nothing, keeping cached quotes", zap.Strings("symbols", poll.symbols))
		return
	}

	if missing := missingSymbols(poll.symbols, quotes); len(missing) > 0 {
		p.logger.Warn("quote fetch partially failed", zap.Strings("missing", missing))
	}

	applied := p.cache.Merge(quotes)
	p.logger.Debug("quotes merged", zap.Int("applied", applied), zap.Int("requested", len(poll.symbols)))
}

func missingSymbols(requested []string, quotes map[string]domain.Quote) []string {
	got := make(map[string]struct{}, len(quotes))
	for s, q := range quotes {
		if q.IsValid() {
			got[domain.NormalizeSymbol(s)] = struct{}{}
		}
	}

	var missing []string
	for _, s := range requested {
		if _, ok := got[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

func normalizeSymbols(symbols []string) []string {
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

// SameSymbols reports whether a and b hold the same symbol set.
func SameSymbols(a, b []string) bool {
	na, nb := normalizeSymbols(a), normalizeSymbols(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
