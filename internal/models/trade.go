package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the lifecycle state of an imported trade.
type TradeStatus string

const (
	TradeStatusOpen     TradeStatus = "OPEN"
	TradeStatusClosed   TradeStatus = "CLOSED"
	TradeStatusExpired  TradeStatus = "EXPIRED"
	TradeStatusAssigned TradeStatus = "ASSIGNED"
)

// StrategyType classifies an options position by its leg structure.
type StrategyType string

const (
	StrategyCoveredCall    StrategyType = "COVERED_CALL"
	StrategyCashSecuredPut StrategyType = "CASH_SECURED_PUT"
	StrategyVertical       StrategyType = "VERTICAL"
	StrategyIronCondor     StrategyType = "IRON_CONDOR"
	StrategyStrangle       StrategyType = "STRANGLE"
	StrategyStraddle       StrategyType = "STRADDLE"
	StrategyCalendar       StrategyType = "CALENDAR"
	StrategyLongCall       StrategyType = "LONG_CALL"
	StrategyLongPut        StrategyType = "LONG_PUT"
	StrategyShares         StrategyType = "SHARES"
	StrategyUnknown        StrategyType = "UNKNOWN"
)

// ParsedTrade is one row extracted from an uploaded broker file.
// Immutable after parsing; user edits layer on top via TradeDecision.
type ParsedTrade struct {
	ID            string           `json:"id"`
	Ticker        string           `json:"ticker"`
	Strategy      StrategyType     `json:"strategy,omitempty"`
	StrategyLabel string           `json:"strategy_label,omitempty"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	DebitCredit   decimal.Decimal  `json:"debit_credit"`
	RealizedPnL   *decimal.Decimal `json:"realized_pnl,omitempty"`
	Status        TradeStatus      `json:"status"`
	Legs          string           `json:"legs,omitempty"`
	Description   string           `json:"description,omitempty"`
	RawSource     json.RawMessage  `json:"raw_source,omitempty"`
	IsValid       bool             `json:"is_valid"`
	IsDuplicate   bool             `json:"is_duplicate"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// Reviewable reports whether the trade enters the review queue.
// Invalid and duplicate rows are never shown to the user.
func (t *ParsedTrade) Reviewable() bool {
	return t.IsValid && !t.IsDuplicate
}

// UploadSummary describes the outcome of parsing one uploaded file.
type UploadSummary struct {
	TotalRows     int `json:"total_rows"`
	ValidTrades   int `json:"valid_trades"`
	InvalidTrades int `json:"invalid_trades"`
	Duplicates    int `json:"duplicates"`
}

// UploadBatch is what the upload collaborator hands to the wizard.
type UploadBatch struct {
	BatchID string        `json:"batch_id"`
	Trades  []ParsedTrade `json:"trades"`
	Summary UploadSummary `json:"summary"`
}
