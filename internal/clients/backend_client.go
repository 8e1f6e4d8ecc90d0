package clients

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackendClient talks to the papertrade market data API:
//
//	GET {base}/api/quote?symbol=S   -> {symbol, price, change_pct}
//	GET {base}/api/search?query=Q   -> {results: [...]}
type BackendClient struct {
	baseURL     string
	httpClient  *http.Client
	retrier     *retrier.Retrier
	concurrency int
	logger      *zap.Logger
}

// NewBackendClient creates a client for the API at baseURL.
func NewBackendClient(baseURL string, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  newHTTPClient(),
		retrier:     newRetrier(logger),
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

type backendQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

type backendStock struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ChangePct  decimal.Decimal `json:"change_pct"`
	Sector     string          `json:"sector"`
	Volatility string          `json:"volatility"`
}

type backendSearchResponse struct {
	Results []backendStock `json:"results"`
}

// GetQuotes fetches every symbol concurrently. Symbols the backend cannot resolve or
// prices it reports as non-positive are omitted. An error is returned only when no
// symbol could be fetched because of a transport or server failure.
func (c *BackendClient) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	var (
		mu       sync.Mutex
		out      = make(map[string]domain.Quote, len(symbols))
		failures int
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			q, err := retrier.DoWithData(c.retrier, gctx, func(ctx context.Context) (backendQuote, error) {
				var q backendQuote
				err := getJSON(ctx, c.httpClient, c.baseURL+"/api/quote?symbol="+url.QueryEscape(symbol), &q)
				return q, err
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil && isClientError(err):
				c.logger.Debug("backend cannot resolve symbol", zap.String("symbol", symbol), zap.Error(err))
			case err != nil:
				failures++
				lastErr = err
				c.logger.Warn("backend quote failed", zap.String("symbol", symbol), zap.Error(err))
			case !q.Price.IsPositive():
				c.logger.Debug("backend returned unusable price", zap.String("symbol", symbol), zap.String("price", q.Price.String()))
			default:
				out[domain.NormalizeSymbol(symbol)] = domain.Quote{Price: q.Price, ChangePct: q.ChangePct}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(symbols) > 0 && failures == len(symbols) {
		return nil, errors.Wrapf(lastErr, "fetch %d backend quotes", len(symbols))
	}
	return out, nil
}

// Search looks stocks up by name or symbol.
func (c *BackendClient) Search(ctx context.Context, query string) ([]domain.Stock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	resp, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (backendSearchResponse, error) {
		var resp backendSearchResponse
		err := getJSON(ctx, c.httpClient, c.baseURL+"/api/search?query="+url.QueryEscape(query), &resp)
		return resp, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}

	stocks := make([]domain.Stock, 0, len(resp.Results))
	for _, r := range resp.Results {
		symbol := domain.NormalizeSymbol(r.Symbol)
		if symbol == "" {
			continue
		}
		stocks = append(stocks, domain.Stock{
			Symbol:     symbol,
			Name:       r.Name,
			Price:      r.Price,
			ChangePct:  r.ChangePct,
			Sector:     r.Sector,
			Volatility: domain.Volatility(r.Volatility),
		})
	}
	return stocks, nil
}
