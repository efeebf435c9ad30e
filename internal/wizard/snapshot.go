package wizard

import (
	"github.com/mkarlsen/tradescribe/internal/models"
)

// Snapshot is the durable shape of a session. It survives a reload so an
// interrupted import resumes at the same step with the same decisions.
// The raw file handle and the transient loading/error flags are excluded.
type Snapshot struct {
	BatchID            string                           `json:"batch_id"`
	FileName           string                           `json:"file_name"`
	Trades             []models.ParsedTrade             `json:"trades"`
	Summary            models.UploadSummary             `json:"summary"`
	CurrentStep        Step                             `json:"current_step"`
	CurrentReviewIndex int                              `json:"current_review_index"`
	Decisions          map[string]*models.TradeDecision `json:"decisions"`
	ReviewHistory      []string                         `json:"review_history"`
	LinkGroups         []models.LinkGroup               `json:"link_groups"`
	Suggestions        []models.LinkSuggestion          `json:"suggestions"`
	ApprovedCount      int                              `json:"approved_count"`
	SkippedCount       int                              `json:"skipped_count"`
	PendingCount       int                              `json:"pending_count"`
	Result             *models.ImportResult             `json:"result,omitempty"`
}

// Snapshot captures the session's durable state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		BatchID:            s.BatchID,
		FileName:           s.FileName,
		Trades:             s.Trades,
		Summary:            s.Summary,
		CurrentStep:        s.Step,
		CurrentReviewIndex: s.ReviewIndex,
		Decisions:          s.Decisions,
		ReviewHistory:      s.History,
		LinkGroups:         s.LinkGroups,
		Suggestions:        s.Suggestions,
		ApprovedCount:      s.ApprovedCount,
		SkippedCount:       s.SkippedCount,
		PendingCount:       s.PendingCount,
		Result:             s.Result,
	}
}

// Restore rebuilds a session from a durable snapshot. Transient flags come
// back cleared.
func Restore(snap Snapshot) *Session {
	s := NewSession()
	s.BatchID = snap.BatchID
	s.FileName = snap.FileName
	s.Trades = snap.Trades
	s.Summary = snap.Summary
	if ValidStep(snap.CurrentStep) {
		s.Step = snap.CurrentStep
	}
	s.ReviewIndex = snap.CurrentReviewIndex
	if snap.Decisions != nil {
		s.Decisions = snap.Decisions
	}
	s.History = snap.ReviewHistory
	s.LinkGroups = snap.LinkGroups
	s.Suggestions = snap.Suggestions
	s.ApprovedCount = snap.ApprovedCount
	s.SkippedCount = snap.SkippedCount
	s.PendingCount = snap.PendingCount
	s.Result = snap.Result
	return s
}
