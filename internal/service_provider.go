package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/clients"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// marketDataProvider serves both quotes and search results.
type marketDataProvider interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
	Search(ctx context.Context, query string) ([]domain.Stock, error)
}

// newMarketDataProvider picks the provider named in the config.
func newMarketDataProvider(cfg config.Config, logger *zap.Logger) (marketDataProvider, error) {
	switch cfg.QuoteProvider {
	case config.ProviderBackend:
		if cfg.BackendURL == "" {
			return nil, errors.Errorf("backend_url is required for the %s provider", cfg.QuoteProvider)
		}
		return clients.NewBackendClient(cfg.BackendURL, logger), nil
	case config.ProviderYahoo:
		return clients.NewYahooClient(cfg.YahooURL, logger), nil
	case config.ProviderStatic, "":
		return clients.NewStaticClient(nil), nil
	default:
		return nil, errors.Errorf("unsupported quote provider: %s", cfg.QuoteProvider)
	}
}
