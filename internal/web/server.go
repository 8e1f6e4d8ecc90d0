// Package web exposes the paper trader over HTTP: a JSON API and an SSE valuation stream.
package web

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/reflection"
	"github.com/vadiminshakov/papertrade/internal/services/valuation"
)

const (
	streamPollInterval = 2 * time.Second
	heartbeatInterval  = 30 * time.Second
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Trader is the paper trading surface served over HTTP.
type Trader interface {
	Valuation() valuation.Result
	Quotes() map[string]domain.QuoteEntry
	Quote(symbol string) (domain.QuoteEntry, bool)
	Positions() []domain.Position
	Cash(bucket domain.Bucket) decimal.Decimal
	Capital() domain.Capital
	Transactions(order domain.Order) []domain.Transaction
	History() []domain.ValuationSnapshot
	ExecuteTrade(tradeType domain.TradeType, symbol string, quantity, price decimal.Decimal) (domain.Transaction, error)
	Watch(symbols ...string)
	Watchlist() []string
	Search(ctx context.Context, query string) ([]domain.Stock, error)
	Reflect(ctx context.Context, transactionID string, r reflection.Reflection) (string, error)
	DiaryEntries() ([]domain.DiaryEntry, error)
	ValuationsAfter(index uint64) ([]domain.ValuationRecord, error)
	JournalIndex() uint64
	JournalGeneration() uint64
	Reset() error
}

// Server HTTP front of a Trader.
type Server struct {
	addr   string
	trader Trader
	logger *zap.Logger

	pollInterval time.Duration
}

// NewServer creates a new web server instance.
func NewServer(addr string, trader Trader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:         addr,
		trader:       trader,
		logger:       logger,
		pollInterval: streamPollInterval,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// the stream outlives any request timeout
		r.Get("/valuations/stream", s.handleValuationStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/portfolio", s.handlePortfolio)
			r.Get("/quotes", s.handleQuotes)
			r.Get("/history", s.handleHistory)
			r.Get("/search", s.handleSearch)
			r.Put("/watchlist", s.handleWatchlist)
			r.Post("/reset", s.handleReset)

			r.Post("/trades", s.handleTrade)
			r.Get("/transactions", s.handleTransactions)
			r.Get("/reflections", s.handleReflections)
			r.Post("/reflections", s.handleReflect)
		})
	})

	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with certificates obtained via ACME.
// An HTTP server on port 80 answers the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme server", zap.Error(err))
		}
	}()

	s.logger.Info("https server listening", zap.String("addr", s.addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "https server")
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
