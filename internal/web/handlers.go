package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/reflection"
	"github.com/vadiminshakov/papertrade/internal/services/valuation"
)

type errorResponse struct {
	Error string `json:"error"`
}

type cashResponse struct {
	USD decimal.Decimal `json:"usd"`
	KRW decimal.Decimal `json:"krw"`
}

type portfolioResponse struct {
	Cash      cashResponse      `json:"cash"`
	Capital   cashResponse      `json:"capital"`
	Positions []domain.Position `json:"positions"`
	Valuation valuation.Result  `json:"valuation"`
	Watchlist []string          `json:"watchlist"`
}

type tradeRequest struct {
	Type     string           `json:"type"`
	Symbol   string           `json:"symbol"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

type watchlistRequest struct {
	Symbols []string `json:"symbols"`
}

type reflectRequest struct {
	TransactionID string `json:"transaction_id"`
	reflection.Reflection
}

type reflectResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	capital := s.trader.Capital()
	positions := s.trader.Positions()
	if positions == nil {
		positions = []domain.Position{}
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		Cash: cashResponse{
			USD: s.trader.Cash(domain.BucketUSD),
			KRW: s.trader.Cash(domain.BucketKRW),
		},
		Capital:   cashResponse{USD: capital.USD, KRW: capital.KRW},
		Positions: positions,
		Valuation: s.trader.Valuation(),
		Watchlist: s.trader.Watchlist(),
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.trader.Quotes())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.trader.History())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	order := domain.NewestFirst
	switch strings.ToLower(r.URL.Query().Get("order")) {
	case "", "newest":
	case "oldest":
		order = domain.OldestFirst
	default:
		writeError(w, http.StatusBadRequest, "order must be newest or oldest")
		return
	}

	txs := s.trader.Transactions(order)
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed trade request")
		return
	}

	tradeType, err := domain.ParseTradeType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var price decimal.Decimal
	if req.Price != nil {
		price = *req.Price
	} else {
		quote, ok := s.trader.Quote(req.Symbol)
		if !ok {
			writeError(w, http.StatusConflict, "no cached quote for "+domain.NormalizeSymbol(req.Symbol)+", price is required")
			return
		}
		price = quote.Price
	}

	tx, err := s.trader.ExecuteTrade(tradeType, req.Symbol, req.Quantity, price)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.logger.Info("trade executed via api", zap.String("trade", tx.String()))
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed watchlist request")
		return
	}

	s.trader.Watch(req.Symbols...)
	writeJSON(w, http.StatusOK, s.trader.Watchlist())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.trader.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Warn("search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	if stocks == nil {
		stocks = []domain.Stock{}
	}
	writeJSON(w, http.StatusOK, stocks)
}

func (s *Server) handleReflect(w http.ResponseWriter, r *http.Request) {
	var req reflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed reflection request")
		return
	}

	id, err := s.trader.Reflect(r.Context(), req.TransactionID, req.Reflection)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reflectResponse{ID: id})
}

func (s *Server) handleReflections(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.trader.DiaryEntries()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.DiaryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if err := s.trader.Reset(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps ledger and diary sentinels to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidDiaryEntry):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInsufficientHoldings):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
