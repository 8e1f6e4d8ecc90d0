package clients

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultYahooURL = "https://query1.finance.yahoo.com"

	closesPath        = "$.chart.result[0].indicators.quote[0].close"
	searchQuotesPath  = "$.quotes"
	yahooSearchLimit  = 10
	percentMultiplier = 100
)

// YahooClient reads quotes from the Yahoo Finance chart endpoint. The last daily close
// is the price and the change is measured against the previous close.
type YahooClient struct {
	baseURL     string
	httpClient  *http.Client
	retrier     *retrier.Retrier
	concurrency int
	logger      *zap.Logger
}

// NewYahooClient creates a client. An empty baseURL uses DefaultYahooURL.
func NewYahooClient(baseURL string, logger *zap.Logger) *YahooClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  newHTTPClient(),
		retrier:     newRetrier(logger),
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

// GetQuotes fetches every symbol concurrently, omitting symbols without usable closes.
func (c *YahooClient) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
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
			q, err := retrier.DoWithData(c.retrier, gctx, func(ctx context.Context) (domain.Quote, error) {
				return c.chartQuote(ctx, symbol)
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil && isClientError(err):
				c.logger.Debug("yahoo cannot resolve symbol", zap.String("symbol", symbol), zap.Error(err))
			case err != nil:
				failures++
				lastErr = err
				c.logger.Warn("yahoo quote failed", zap.String("symbol", symbol), zap.Error(err))
			case !q.IsValid():
				c.logger.Debug("yahoo returned no usable close", zap.String("symbol", symbol))
			default:
				out[domain.NormalizeSymbol(symbol)] = q
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(symbols) > 0 && failures == len(symbols) {
		return nil, errors.Wrapf(lastErr, "fetch %d yahoo quotes", len(symbols))
	}
	return out, nil
}

func (c *YahooClient) chartQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	var jobj any
	addr := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?range=2d&interval=1d"
	if err := getJSON(ctx, c.httpClient, addr, &jobj); err != nil {
		return domain.Quote{}, err
	}

	jval, err := jsonpath.Get(closesPath, jobj)
	if err != nil {
		// no result for the symbol
		return domain.Quote{}, nil
	}
	return quoteFromCloses(jval), nil
}

// quoteFromCloses builds a quote from a list of daily closes, skipping null entries.
func quoteFromCloses(jval any) domain.Quote {
	list, ok := jval.([]any)
	if !ok {
		return domain.Quote{}
	}

	closes := make([]decimal.Decimal, 0, len(list))
	for _, v := range list {
		f, ok := v.(float64)
		if !ok || f <= 0 {
			continue
		}
		closes = append(closes, decimal.NewFromFloat(f))
	}
	if len(closes) == 0 {
		return domain.Quote{}
	}

	price := closes[len(closes)-1]
	change := decimal.Zero
	if len(closes) > 1 {
		prev := closes[len(closes)-2]
		change = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(percentMultiplier)).Round(2)
	}
	return domain.Quote{Price: price, ChangePct: change}
}

// Search looks symbols up with the Yahoo search endpoint. Results carry no price.
func (c *YahooClient) Search(ctx context.Context, query string) ([]domain.Stock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	addr := c.baseURL + "/v1/finance/search?q=" + url.QueryEscape(query) + "&quotesCount=10"
	jobj, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (any, error) {
		var jobj any
		err := getJSON(ctx, c.httpClient, addr, &jobj)
		return jobj, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}

	jval, err := jsonpath.Get(searchQuotesPath, jobj)
	if err != nil {
		return nil, nil
	}
	list, ok := jval.([]any)
	if !ok {
		return nil, nil
	}

	stocks := make([]domain.Stock, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		symbol := domain.NormalizeSymbol(stringField(m, "symbol"))
		if symbol == "" {
			continue
		}
		name := stringField(m, "longname")
		if name == "" {
			name = stringField(m, "shortname")
		}
		stocks = append(stocks, domain.Stock{
			Symbol: symbol,
			Name:   name,
			Sector: stringField(m, "sector"),
		})
		if len(stocks) == yahooSearchLimit {
			break
		}
	}
	return stocks, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
