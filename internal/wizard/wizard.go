// Package wizard implements the Smart Import session: a multi-step state
// machine that walks an uploaded batch of parsed trades through review,
// thesis linking and confirmation. All mutations are synchronous and never
// return errors; invalid ids and out-of-range indices degrade to no-ops or
// clamped values. Callers own serialization of concurrent access.
package wizard

import (
	"github.com/mkarlsen/tradescribe/internal/models"
)

// Step identifies one phase of the import wizard.
type Step string

const (
	StepUpload   Step = "upload"
	StepReview   Step = "review"
	StepLink     Step = "link"
	StepConfirm  Step = "confirm"
	StepComplete Step = "complete"
)

var stepOrder = []Step{StepUpload, StepReview, StepLink, StepConfirm, StepComplete}

// ValidStep reports whether s names a known wizard step.
func ValidStep(s Step) bool {
	switch s {
	case StepUpload, StepReview, StepLink, StepConfirm, StepComplete:
		return true
	}
	return false
}

// Session is the aggregate root for one import. It owns the step sequence,
// the parsed-trade batch, per-trade review decisions with undo history,
// link groups and suggestions, and the final import result.
type Session struct {
	Step     Step
	FileName string
	BatchID  string
	Trades   []models.ParsedTrade
	Summary  models.UploadSummary

	ReviewIndex int
	Decisions   map[string]*models.TradeDecision
	History     []string

	LinkGroups  []models.LinkGroup
	Suggestions []models.LinkSuggestion

	ApprovedCount int
	SkippedCount  int
	PendingCount  int

	Result *models.ImportResult

	// Transient flags, excluded from durable persistence.
	Uploading          bool
	UploadError        string
	SuggestionsLoading bool
	Confirming         bool
	ConfirmError       string
}

// NewSession returns a session at the upload step with empty state.
func NewSession() *Session {
	return &Session{
		Step:      StepUpload,
		Decisions: make(map[string]*models.TradeDecision),
	}
}

// SetStep overrides the current step unconditionally. Manual navigation
// only; callers are responsible for not jumping past missing upload data.
func (s *Session) SetStep(step Step) {
	if !ValidStep(step) {
		return
	}
	s.Step = step
}

// GoBack moves to the previous step in the fixed order. No-op at upload.
func (s *Session) GoBack() {
	for i, step := range stepOrder {
		if step == s.Step {
			if i > 0 {
				s.Step = stepOrder[i-1]
			}
			return
		}
	}
}

// SetFile records the pending upload's file name and clears any prior
// upload error. Parsing is the upload collaborator's job.
func (s *Session) SetFile(name string) {
	s.FileName = name
	s.UploadError = ""
}

// StartUpload marks an upload attempt in flight.
func (s *Session) StartUpload() {
	s.Uploading = true
	s.UploadError = ""
}

// UploadSuccess ingests a freshly parsed batch. A new batch invalidates all
// prior review, link and confirm state, recomputes the pending count from
// the reviewable trades, and advances to the review step.
func (s *Session) UploadSuccess(batch models.UploadBatch) {
	s.BatchID = batch.BatchID
	s.Trades = batch.Trades
	s.Summary = batch.Summary

	s.ReviewIndex = 0
	s.Decisions = make(map[string]*models.TradeDecision)
	s.History = nil
	s.LinkGroups = nil
	s.Suggestions = nil
	s.Result = nil

	s.ApprovedCount = 0
	s.SkippedCount = 0
	s.PendingCount = len(s.reviewable())

	s.Uploading = false
	s.UploadError = ""
	s.Confirming = false
	s.ConfirmError = ""

	s.Step = StepReview
}

// SetUploadError records a failed upload attempt.
func (s *Session) SetUploadError(msg string) {
	s.Uploading = false
	s.UploadError = msg
}

// StartConfirm marks a confirm attempt in flight.
func (s *Session) StartConfirm() {
	s.Confirming = true
	s.ConfirmError = ""
}

// ConfirmSuccess records the import result verbatim and completes the wizard.
func (s *Session) ConfirmSuccess(result models.ImportResult) {
	s.Confirming = false
	s.Result = &result
	s.Step = StepComplete
}

// SetConfirmError records a failed confirm attempt.
func (s *Session) SetConfirmError(msg string) {
	s.Confirming = false
	s.ConfirmError = msg
}

// Reset returns the session to its initial state, abandoning the import.
func (s *Session) Reset() {
	*s = *NewSession()
}

// reviewable returns the trades that enter the review queue, in batch order.
func (s *Session) reviewable() []models.ParsedTrade {
	out := make([]models.ParsedTrade, 0, len(s.Trades))
	for _, t := range s.Trades {
		if t.Reviewable() {
			out = append(out, t)
		}
	}
	return out
}

// ReviewQueue returns the reviewable trades in batch order.
func (s *Session) ReviewQueue() []models.ParsedTrade {
	return s.reviewable()
}

func (s *Session) trade(id string) *models.ParsedTrade {
	for i := range s.Trades {
		if s.Trades[i].ID == id {
			return &s.Trades[i]
		}
	}
	return nil
}
