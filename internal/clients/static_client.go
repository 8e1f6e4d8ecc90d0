package clients

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// DefaultCatalog offline stock list served by StaticClient.
var DefaultCatalog = []domain.Stock{
	{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("185.50"), ChangePct: decimal.RequireFromString("1.2"), Sector: "Technology", Volatility: domain.VolatilityMedium},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: decimal.RequireFromString("172.30"), ChangePct: decimal.RequireFromString("-0.5"), Sector: "Technology", Volatility: domain.VolatilityMedium},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Price: decimal.RequireFromString("175.80"), ChangePct: decimal.RequireFromString("3.5"), Sector: "Automotive", Volatility: domain.VolatilityHigh},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Price: decimal.RequireFromString("148.20"), ChangePct: decimal.RequireFromString("0.1"), Sector: "Healthcare", Volatility: domain.VolatilityLow},
	{Symbol: "KO", Name: "The Coca-Cola Company", Price: decimal.RequireFromString("62.50"), ChangePct: decimal.RequireFromString("0.3"), Sector: "Consumer Staples", Volatility: domain.VolatilityLow},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Price: decimal.RequireFromString("950.00"), ChangePct: decimal.RequireFromString("2.8"), Sector: "Technology", Volatility: domain.VolatilityHigh},
}

// DefaultWatchlist symbols of DefaultCatalog.
func DefaultWatchlist() []string {
	out := make([]string, 0, len(DefaultCatalog))
	for _, s := range DefaultCatalog {
		out = append(out, s.Symbol)
	}
	return out
}

// StaticClient serves quotes and search results from a fixed catalog, for offline use.
type StaticClient struct {
	stocks map[string]domain.Stock
}

// NewStaticClient creates a client over catalog. A nil catalog uses DefaultCatalog.
func NewStaticClient(catalog []domain.Stock) *StaticClient {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	stocks := make(map[string]domain.Stock, len(catalog))
	for _, s := range catalog {
		s.Symbol = domain.NormalizeSymbol(s.Symbol)
		stocks[s.Symbol] = s
	}
	return &StaticClient{stocks: stocks}
}

// GetQuotes returns the catalog quotes of the known symbols.
func (c *StaticClient) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Quote, len(symbols))
	for _, symbol := range symbols {
		symbol = domain.NormalizeSymbol(symbol)
		if s, ok := c.stocks[symbol]; ok {
			out[symbol] = domain.Quote{Price: s.Price, ChangePct: s.ChangePct}
		}
	}
	return out, nil
}

// Search matches query against symbols and names, case-insensitively.
func (c *StaticClient) Search(ctx context.Context, query string) ([]domain.Stock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var out []domain.Stock
	for _, s := range c.stocks {
		if strings.Contains(strings.ToLower(s.Symbol), q) || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
