package wizard

import (
	"github.com/mkarlsen/tradescribe/internal/models"
)

// ApproveTrade records an approve decision for the given trade, with an
// optional edits overlay and notes, appends it to the undo history and
// advances the review cursor. Approving a trade that already has a decision
// replaces the decision and reconciles counters instead of double-counting.
// Unknown trade ids are ignored.
func (s *Session) ApproveTrade(tradeID string, edits *models.TradeEdits, notes string) {
	s.decide(tradeID, models.DecisionApprove, edits, notes)
}

// SkipTrade records a skip decision for the given trade. Symmetric to
// ApproveTrade.
func (s *Session) SkipTrade(tradeID string) {
	s.decide(tradeID, models.DecisionSkip, nil, "")
}

func (s *Session) decide(tradeID string, action models.DecisionAction, edits *models.TradeEdits, notes string) {
	t := s.trade(tradeID)
	if t == nil || !t.Reviewable() {
		return
	}

	prev, decided := s.Decisions[tradeID]
	s.Decisions[tradeID] = &models.TradeDecision{
		Action: action,
		Edits:  edits,
		Notes:  notes,
	}

	switch {
	case !decided:
		s.PendingCount--
		s.bump(action, 1)
	case prev.Action != action:
		// Replay with the opposite verdict: move the count, pending unchanged.
		s.bump(prev.Action, -1)
		s.bump(action, 1)
	}

	// Keep each trade id at most once in the undo history, newest last.
	s.History = removeString(s.History, tradeID)
	s.History = append(s.History, tradeID)

	s.advanceCursor()
}

func (s *Session) bump(action models.DecisionAction, delta int) {
	if action == models.DecisionApprove {
		s.ApprovedCount += delta
	} else {
		s.SkippedCount += delta
	}
}

func (s *Session) advanceCursor() {
	last := len(s.reviewable()) - 1
	if last < 0 {
		s.ReviewIndex = 0
		return
	}
	if s.ReviewIndex < last {
		s.ReviewIndex++
	}
}

// UndoLast discards the most recent decision outright, returning its trade
// to pending and stepping the cursor back. No-op on empty history. Undo
// does not restore prior edits; the decision is deleted, not reverted.
func (s *Session) UndoLast() {
	if len(s.History) == 0 {
		return
	}
	tradeID := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]

	d, ok := s.Decisions[tradeID]
	if !ok {
		return
	}
	delete(s.Decisions, tradeID)
	s.bump(d.Action, -1)
	s.PendingCount++

	if s.ReviewIndex > 0 {
		s.ReviewIndex--
	}
}

// GoToTrade positions the review cursor directly, clamped to the review
// queue bounds. Decisions and counters are untouched.
func (s *Session) GoToTrade(index int) {
	last := len(s.reviewable()) - 1
	if last < 0 {
		s.ReviewIndex = 0
		return
	}
	if index < 0 {
		index = 0
	}
	if index > last {
		index = last
	}
	s.ReviewIndex = index
}

// TradeDecision returns the decision for the given trade, or nil if none
// has been recorded yet.
func (s *Session) TradeDecision(tradeID string) *models.TradeDecision {
	return s.Decisions[tradeID]
}

// ReviewComplete reports whether every reviewable trade has a decision.
// It does not transition the step; callers move to the link step explicitly.
func (s *Session) ReviewComplete() bool {
	return s.PendingCount == 0
}

// TradeWithEdits merges a trade's original fields with its decision's edits
// overlay. Present edit fields win field-by-field; absent fields fall back
// to the original. Returns nil for an unknown trade id.
func (s *Session) TradeWithEdits(tradeID string) *models.ParsedTrade {
	t := s.trade(tradeID)
	if t == nil {
		return nil
	}
	merged := *t

	d := s.Decisions[tradeID]
	if d == nil || d.Edits == nil {
		return &merged
	}

	e := d.Edits
	if e.Ticker != nil {
		merged.Ticker = *e.Ticker
	}
	if e.Strategy != nil {
		merged.Strategy = *e.Strategy
	}
	if e.OpenedAt != nil {
		merged.OpenedAt = *e.OpenedAt
	}
	if e.ClosedAt != nil {
		merged.ClosedAt = e.ClosedAt
	}
	if e.DebitCredit != nil {
		merged.DebitCredit = *e.DebitCredit
	}
	if e.RealizedPnL != nil {
		merged.RealizedPnL = e.RealizedPnL
	}
	if e.Status != nil {
		merged.Status = *e.Status
	}
	if e.Description != nil {
		merged.Description = *e.Description
	}
	return &merged
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
