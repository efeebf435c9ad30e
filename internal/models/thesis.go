package models

// Direction is the directional bias of a thesis.
type Direction string

const (
	DirectionBullish  Direction = "BULLISH"
	DirectionBearish  Direction = "BEARISH"
	DirectionNeutral  Direction = "NEUTRAL"
	DirectionVolatile Direction = "VOLATILE"
)

// LinkGroup is a proposed or user-defined bundle of related trades that
// share one trading thesis. Membership is the authoritative linkage; the
// decision-side LinkedGroupID is maintained separately by the assembler.
type LinkGroup struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Ticker           string    `json:"ticker"`
	Direction        Direction `json:"direction"`
	TradeIDs         []string  `json:"trade_ids"`
	ExistingTradeIDs []string  `json:"existing_trade_ids,omitempty"`
	ExistingThesisID string    `json:"existing_thesis_id,omitempty"`
	IsNew            bool      `json:"is_new"`
}

// LinkGroupUpdate is a sparse field patch for an existing group.
type LinkGroupUpdate struct {
	Name             *string    `json:"name,omitempty"`
	Ticker           *string    `json:"ticker,omitempty"`
	Direction        *Direction `json:"direction,omitempty"`
	ExistingThesisID *string    `json:"existing_thesis_id,omitempty"`
}

// LinkSuggestion is an AI-proposed grouping. Read-only until accepted or
// dismissed; never mutated in place.
type LinkSuggestion struct {
	ID                 string                 `json:"id"`
	Confidence         float64                `json:"confidence"`
	TradeIDs           []string               `json:"trade_ids"`
	Pattern            string                 `json:"pattern"`
	Reason             string                 `json:"reason"`
	SuggestedName      string                 `json:"suggested_name"`
	SuggestedDirection Direction              `json:"suggested_direction"`
	TradeActions       map[string]TradeAction `json:"trade_actions,omitempty"`
}

// ImportError describes a per-trade failure during confirmation.
type ImportError struct {
	TradeID string `json:"trade_id"`
	Error   string `json:"error"`
}

// ImportResult is the confirm collaborator's outcome, recorded verbatim
// on the wizard session.
type ImportResult struct {
	Imported      int           `json:"imported"`
	Skipped       int           `json:"skipped"`
	ThesesCreated int           `json:"theses_created"`
	TradeIDs      []string      `json:"trade_ids"`
	ThesisIDs     []string      `json:"thesis_ids"`
	Errors        []ImportError `json:"errors,omitempty"`
}
