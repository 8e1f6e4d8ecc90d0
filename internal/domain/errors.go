package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidOrder non-positive quantity or price, unknown side or empty symbol.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInsufficientFunds BUY would drive the bucket's cash negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHoldings SELL exceeds the held quantity or the position is absent.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInvalidDiaryEntry unknown emotion or reason, or an empty note.
	ErrInvalidDiaryEntry = errors.New("invalid diary entry")
	// ErrNotFound requested record does not exist.
	ErrNotFound = errors.New("not found")
)
