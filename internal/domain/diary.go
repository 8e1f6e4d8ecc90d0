package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Emotion how the user felt about a trade.
type Emotion string

const (
	EmotionConfident Emotion = "confident"
	EmotionAnxious   Emotion = "anxious"
	EmotionExcited   Emotion = "excited"
	EmotionRegretful Emotion = "regretful"
	EmotionNeutral   Emotion = "neutral"
)

// Emotions lists every accepted emotion.
var Emotions = []Emotion{EmotionConfident, EmotionAnxious, EmotionExcited, EmotionRegretful, EmotionNeutral}

// Reason why the user placed a trade.
type Reason string

const (
	ReasonNews           Reason = "news"
	ReasonAnalysis       Reason = "analysis"
	ReasonImpulse        Reason = "impulse"
	ReasonRecommendation Reason = "recommendation"
)

// Reasons lists every accepted reason.
var Reasons = []Reason{ReasonNews, ReasonAnalysis, ReasonImpulse, ReasonRecommendation}

// TradeSnapshot executed trade handed to the diary.
type TradeSnapshot struct {
	Type       TradeType       `json:"type"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// DiaryEntry trade reflection written to the diary.
type DiaryEntry struct {
	ID              string           `json:"id"`
	Date            time.Time        `json:"date"`
	Emotion         Emotion          `json:"emotion"`
	Reason          Reason           `json:"reason"`
	Note            string           `json:"note"`
	WhatIf          string           `json:"what_if,omitempty"`
	RecheckPct      *decimal.Decimal `json:"recheck_pct,omitempty"`
	RelatedSymbol   string           `json:"related_symbol,omitempty"`
	TradeType       TradeType        `json:"trade_type,omitempty"`
	TradeQty        *decimal.Decimal `json:"trade_qty,omitempty"`
	TradePrice      *decimal.Decimal `json:"trade_price,omitempty"`
	TradeExecutedAt *time.Time       `json:"trade_executed_at,omitempty"`
}

// Validate checks the user-provided part of an entry.
func (e DiaryEntry) Validate() error {
	if !containsEmotion(e.Emotion) {
		return errors.Wrapf(ErrInvalidDiaryEntry, "unknown emotion %q", e.Emotion)
	}
	if !containsReason(e.Reason) {
		return errors.Wrapf(ErrInvalidDiaryEntry, "unknown reason %q", e.Reason)
	}
	if e.Note == "" {
		return errors.Wrap(ErrInvalidDiaryEntry, "note is required")
	}
	return nil
}

func containsEmotion(e Emotion) bool {
	for _, v := range Emotions {
		if v == e {
			return true
		}
	}
	return false
}

func containsReason(r Reason) bool {
	for _, v := range Reasons {
		if v == r {
			return true
		}
	}
	return false
}
