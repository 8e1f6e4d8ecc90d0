package ledger

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
)

// storedState persisted form of the ledger. Cash is string-encoded.
type storedState struct {
	CashUSD      string                     `json:"cash_usd"`
	CashKRW      string                     `json:"cash_krw,omitempty"`
	Positions    []domain.Position          `json:"positions"`
	Transactions []domain.Transaction       `json:"transactions"`
	History      []domain.ValuationSnapshot `json:"history"`
}

func (l *Ledger) persist() {
	if l.store == nil {
		return
	}

	state := storedState{
		CashUSD:      l.cashUSD.String(),
		CashKRW:      l.cashKRW.String(),
		Positions:    l.portfolioLocked().SortedPositions(),
		Transactions: l.transactions,
		History:      l.history,
	}

	payload, err := json.Marshal(state)
	if err != nil {
		l.logger.Warn("failed to encode ledger state", zap.Error(err))
		return
	}
	if err := l.store.Save(StateKey, payload); err != nil {
		l.logger.Warn("failed to persist ledger state", zap.Error(err))
	}
}

func (l *Ledger) restoreState() error {
	if l.store == nil {
		return nil
	}

	payload, err := l.store.Load(StateKey)
	if err != nil {
		return errors.Wrap(err, "load ledger state")
	}
	if payload == nil {
		return nil
	}

	var state storedState
	if err := json.Unmarshal(payload, &state); err != nil {
		return errors.Wrap(err, "decode ledger state")
	}

	cashUSD, err := decodeCash(state.CashUSD, l.capital.USD)
	if err != nil {
		return errors.Wrap(err, "decode USD cash")
	}
	// states written before the KRW bucket existed carry no KRW cash
	cashKRW, err := decodeCash(state.CashKRW, l.capital.KRW)
	if err != nil {
		return errors.Wrap(err, "decode KRW cash")
	}

	positions := make(map[string]domain.Position, len(state.Positions))
	for _, pos := range state.Positions {
		pos.Symbol = domain.NormalizeSymbol(pos.Symbol)
		if err := pos.Validate(); err != nil {
			return err
		}
		if _, dup := positions[pos.Symbol]; dup {
			return errors.Errorf("duplicate position %s", pos.Symbol)
		}
		positions[pos.Symbol] = pos
	}

	l.cashUSD = cashUSD
	l.cashKRW = cashKRW
	l.positions = positions
	l.transactions = state.Transactions
	if len(state.History) > 0 {
		l.history = state.History
	}

	return nil
}

func decodeCash(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	cash, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if cash.IsNegative() {
		return decimal.Zero, errors.Errorf("negative cash %s", raw)
	}
	return cash, nil
}
