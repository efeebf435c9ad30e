package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecisionAction is the user's verdict on a parsed trade.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionSkip    DecisionAction = "skip"
)

// TradeAction classifies how a trade relates to its thesis.
type TradeAction string

const (
	TradeActionInitial   TradeAction = "INITIAL"
	TradeActionAdd       TradeAction = "ADD"
	TradeActionReduce    TradeAction = "REDUCE"
	TradeActionRoll      TradeAction = "ROLL"
	TradeActionConvert   TradeAction = "CONVERT"
	TradeActionClose     TradeAction = "CLOSE"
	TradeActionAssigned  TradeAction = "ASSIGNED"
	TradeActionExercised TradeAction = "EXERCISED"
)

// TradeEdits is a sparse overlay of user corrections to a parsed trade.
// Only present fields override the original; absent fields fall through.
type TradeEdits struct {
	Ticker      *string          `json:"ticker,omitempty"`
	Strategy    *StrategyType    `json:"strategy,omitempty"`
	OpenedAt    *time.Time       `json:"opened_at,omitempty"`
	ClosedAt    *time.Time       `json:"closed_at,omitempty"`
	DebitCredit *decimal.Decimal `json:"debit_credit,omitempty"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`
	Status      *TradeStatus     `json:"status,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// TradeDecision records the approve/skip verdict for one trade, keyed 1:1
// by trade id in the wizard session.
type TradeDecision struct {
	Action        DecisionAction `json:"action"`
	Edits         *TradeEdits    `json:"edits,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	LinkedGroupID string         `json:"linked_group_id,omitempty"`
	TradeAction   TradeAction    `json:"trade_action,omitempty"`
}
