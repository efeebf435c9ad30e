package wizard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/tradescribe/internal/models"
)

func testBatch() models.UploadBatch {
	opened := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	trades := []models.ParsedTrade{
		{ID: "t1", Ticker: "AAPL", OpenedAt: opened, DebitCredit: decimal.NewFromFloat(-250.00), Status: models.TradeStatusOpen, IsValid: true},
		{ID: "t2", Ticker: "AAPL", OpenedAt: opened.Add(24 * time.Hour), DebitCredit: decimal.NewFromFloat(120.50), Status: models.TradeStatusClosed, IsValid: true},
		{ID: "t3", Ticker: "TSLA", OpenedAt: opened.Add(48 * time.Hour), DebitCredit: decimal.NewFromFloat(-80.00), Status: models.TradeStatusOpen, IsValid: true},
		{ID: "t4", Ticker: "AAPL", OpenedAt: opened, DebitCredit: decimal.NewFromFloat(-250.00), Status: models.TradeStatusOpen, IsValid: true, IsDuplicate: true},
		{ID: "t5", Ticker: "", OpenedAt: opened, Status: models.TradeStatusOpen, IsValid: false, Warnings: []string{"missing ticker"}},
	}
	return models.UploadBatch{
		BatchID: "batch-1",
		Trades:  trades,
		Summary: models.UploadSummary{TotalRows: 5, ValidTrades: 3, InvalidTrades: 1, Duplicates: 1},
	}
}

func newReviewSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.SetFile("trades.csv")
	s.StartUpload()
	s.UploadSuccess(testBatch())
	return s
}

func TestUploadSuccess_ResetsCountersAndStep(t *testing.T) {
	s := newReviewSession(t)

	assert.Equal(t, StepReview, s.Step)
	assert.Equal(t, 0, s.ReviewIndex)
	assert.Equal(t, 0, s.ApprovedCount)
	assert.Equal(t, 0, s.SkippedCount)
	assert.Equal(t, 3, s.PendingCount, "only valid, non-duplicate trades are pending")
	assert.Empty(t, s.Decisions)
	assert.False(t, s.Uploading)
}

func TestUploadSuccess_InvalidAndDuplicateExcludedFromQueue(t *testing.T) {
	s := newReviewSession(t)

	queue := s.ReviewQueue()
	require.Len(t, queue, 3)
	for _, tr := range queue {
		assert.True(t, tr.IsValid)
		assert.False(t, tr.IsDuplicate)
	}
}

func TestApproveSkip_CounterConservation(t *testing.T) {
	s := newReviewSession(t)
	total := s.PendingCount

	s.ApproveTrade("t1", nil, "")
	s.SkipTrade("t2")
	s.ApproveTrade("t3", nil, "solid setup")

	assert.Equal(t, total, s.ApprovedCount+s.SkippedCount+s.PendingCount)
	assert.Equal(t, 2, s.ApprovedCount)
	assert.Equal(t, 1, s.SkippedCount)
	assert.Equal(t, 0, s.PendingCount)
	assert.True(t, s.ReviewComplete())
}

func TestApprove_AdvancesCursorClamped(t *testing.T) {
	s := newReviewSession(t)

	s.ApproveTrade("t1", nil, "")
	assert.Equal(t, 1, s.ReviewIndex)
	s.ApproveTrade("t2", nil, "")
	assert.Equal(t, 2, s.ReviewIndex)
	s.ApproveTrade("t3", nil, "")
	assert.Equal(t, 2, s.ReviewIndex, "cursor clamps at the last valid index")
}

func TestApprove_UnknownTradeIsNoop(t *testing.T) {
	s := newReviewSession(t)

	s.ApproveTrade("nope", nil, "")

	assert.Equal(t, 0, s.ApprovedCount)
	assert.Equal(t, 3, s.PendingCount)
	assert.Nil(t, s.TradeDecision("nope"))
}

func TestApprove_DuplicateTradeIsNoop(t *testing.T) {
	s := newReviewSession(t)

	s.ApproveTrade("t4", nil, "")

	assert.Equal(t, 0, s.ApprovedCount)
	assert.Equal(t, 3, s.PendingCount)
}

func TestApprove_TwiceDoesNotDoubleCount(t *testing.T) {
	s := newReviewSession(t)

	s.ApproveTrade("t1", nil, "")
	s.ApproveTrade("t1", nil, "second pass")

	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, 3, s.ApprovedCount+s.SkippedCount+s.PendingCount)
	require.NotNil(t, s.TradeDecision("t1"))
	assert.Equal(t, "second pass", s.TradeDecision("t1").Notes)
}

func TestApprove_ReplacesSkip(t *testing.T) {
	s := newReviewSession(t)

	s.SkipTrade("t1")
	s.ApproveTrade("t1", nil, "")

	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 0, s.SkippedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, models.DecisionApprove, s.TradeDecision("t1").Action)
}

func TestUndoLast_EmptyHistoryIsNoop(t *testing.T) {
	s := newReviewSession(t)
	before := *s

	s.UndoLast()

	assert.Equal(t, before.PendingCount, s.PendingCount)
	assert.Equal(t, before.ReviewIndex, s.ReviewIndex)
	assert.Empty(t, s.Decisions)
}

func TestUndoLast_RevertsApprove(t *testing.T) {
	s := newReviewSession(t)

	s.ApproveTrade("t1", &models.TradeEdits{}, "note")
	s.UndoLast()

	assert.Equal(t, 0, s.ApprovedCount)
	assert.Equal(t, 3, s.PendingCount)
	assert.Nil(t, s.TradeDecision("t1"), "undo discards the decision outright")
	assert.Equal(t, 0, s.ReviewIndex)
}

func TestReviewScenario_ApproveSkipUndo(t *testing.T) {
	s := newReviewSession(t)
	require.Equal(t, 3, s.PendingCount)

	s.ApproveTrade("t1", nil, "")
	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, 1, s.ReviewIndex)

	s.SkipTrade("t2")
	assert.Equal(t, 1, s.SkippedCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.Equal(t, 2, s.ReviewIndex)

	s.UndoLast()
	assert.Equal(t, 0, s.SkippedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, 1, s.ReviewIndex)
	assert.Nil(t, s.TradeDecision("t2"))
}

func TestGoToTrade_ClampsBounds(t *testing.T) {
	s := newReviewSession(t)

	s.GoToTrade(99)
	assert.Equal(t, 2, s.ReviewIndex)
	s.GoToTrade(-5)
	assert.Equal(t, 0, s.ReviewIndex)
	s.GoToTrade(1)
	assert.Equal(t, 1, s.ReviewIndex)
	assert.Equal(t, 3, s.PendingCount, "cursor moves never touch counters")
}

func TestTradeWithEdits_NoDecisionReturnsOriginal(t *testing.T) {
	s := newReviewSession(t)

	got := s.TradeWithEdits("t1")
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.True(t, got.DebitCredit.Equal(decimal.NewFromFloat(-250.00)))
}

func TestTradeWithEdits_OverlayWinsFieldByField(t *testing.T) {
	s := newReviewSession(t)

	ticker := "MSFT"
	amount := decimal.NewFromFloat(-300.00)
	s.ApproveTrade("t1", &models.TradeEdits{Ticker: &ticker, DebitCredit: &amount}, "")

	got := s.TradeWithEdits("t1")
	require.NotNil(t, got)
	assert.Equal(t, "MSFT", got.Ticker)
	assert.True(t, got.DebitCredit.Equal(amount))
	assert.Equal(t, models.TradeStatusOpen, got.Status, "absent edit fields fall back to original")

	// Original is never mutated.
	assert.Equal(t, "AAPL", s.Trades[0].Ticker)
}

func TestTradeWithEdits_UnknownIDReturnsNil(t *testing.T) {
	s := newReviewSession(t)
	assert.Nil(t, s.TradeWithEdits("missing"))
}

func TestGoBack_StepsAndStopsAtUpload(t *testing.T) {
	s := NewSession()
	s.SetStep(StepLink)
	s.GoBack()
	assert.Equal(t, StepReview, s.Step)
	s.GoBack()
	assert.Equal(t, StepUpload, s.Step)
	s.GoBack()
	assert.Equal(t, StepUpload, s.Step)
}

func TestSetStep_RejectsUnknownStep(t *testing.T) {
	s := NewSession()
	s.SetStep(Step("teleport"))
	assert.Equal(t, StepUpload, s.Step)
}

func TestSetFile_ClearsUploadError(t *testing.T) {
	s := NewSession()
	s.SetUploadError("parse failed")
	s.SetFile("retry.csv")
	assert.Empty(t, s.UploadError)
	assert.Equal(t, "retry.csv", s.FileName)
}

func TestConfirmLifecycle(t *testing.T) {
	s := newReviewSession(t)
	s.ApproveTrade("t1", nil, "")
	s.SetStep(StepConfirm)

	s.StartConfirm()
	assert.True(t, s.Confirming)

	s.SetConfirmError("db unavailable")
	assert.False(t, s.Confirming)
	assert.Equal(t, "db unavailable", s.ConfirmError)

	s.StartConfirm()
	assert.Empty(t, s.ConfirmError)

	result := models.ImportResult{Imported: 1, ThesesCreated: 0, TradeIDs: []string{"db-1"}}
	s.ConfirmSuccess(result)
	assert.Equal(t, StepComplete, s.Step)
	require.NotNil(t, s.Result)
	assert.Equal(t, 1, s.Result.Imported)
}

func TestReset_ReturnsEveryFieldToInitial(t *testing.T) {
	s := newReviewSession(t)
	s.ApproveTrade("t1", nil, "")
	s.SkipTrade("t2")
	s.SetSuggestions([]models.LinkSuggestion{{ID: "s1"}})
	s.AcceptSuggestion("s1")
	s.SetStep(StepConfirm)
	s.SetConfirmError("boom")

	s.Reset()

	fresh := NewSession()
	assert.Equal(t, fresh.Step, s.Step)
	assert.Empty(t, s.FileName)
	assert.Empty(t, s.BatchID)
	assert.Nil(t, s.Trades)
	assert.Empty(t, s.Decisions)
	assert.Nil(t, s.History)
	assert.Nil(t, s.LinkGroups)
	assert.Nil(t, s.Suggestions)
	assert.Zero(t, s.ApprovedCount)
	assert.Zero(t, s.SkippedCount)
	assert.Zero(t, s.PendingCount)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.UploadError)
	assert.Empty(t, s.ConfirmError)
}

func TestSnapshotRestore_RoundTripResumesMidImport(t *testing.T) {
	s := newReviewSession(t)
	s.ApproveTrade("t1", nil, "keep")
	s.SkipTrade("t2")
	s.StartConfirm() // transient flag, must not survive

	restored := Restore(s.Snapshot())

	assert.Equal(t, s.Step, restored.Step)
	assert.Equal(t, s.BatchID, restored.BatchID)
	assert.Equal(t, s.ReviewIndex, restored.ReviewIndex)
	assert.Equal(t, s.ApprovedCount, restored.ApprovedCount)
	assert.Equal(t, s.SkippedCount, restored.SkippedCount)
	assert.Equal(t, s.PendingCount, restored.PendingCount)
	require.NotNil(t, restored.TradeDecision("t1"))
	assert.Equal(t, "keep", restored.TradeDecision("t1").Notes)
	assert.False(t, restored.Confirming)

	// Resumed session keeps working.
	restored.UndoLast()
	assert.Equal(t, 2, restored.PendingCount)
}
