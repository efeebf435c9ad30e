package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/tradescribe/internal/models"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

// anyArgs returns n pgxmock.AnyArg matchers; pgxmock requires the
// expected argument count to match the actual call.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func confirmSession(t *testing.T) *wizard.Session {
	t.Helper()
	opened := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := wizard.NewSession()
	s.UploadSuccess(models.UploadBatch{
		BatchID: "batch-42",
		Trades: []models.ParsedTrade{
			{ID: "t1", Ticker: "AAPL", OpenedAt: opened, Status: models.TradeStatusOpen, IsValid: true},
			{ID: "t2", Ticker: "AAPL", OpenedAt: opened, Status: models.TradeStatusClosed, IsValid: true},
			{ID: "t3", Ticker: "TSLA", OpenedAt: opened, Status: models.TradeStatusOpen, IsValid: true},
		},
		Summary: models.UploadSummary{TotalRows: 3, ValidTrades: 3},
	})
	ticker := "MSFT"
	s.ApproveTrade("t1", &models.TradeEdits{Ticker: &ticker}, "edited")
	s.ApproveTrade("t2", nil, "")
	s.SkipTrade("t3")

	groupID := s.CreateLinkGroup(models.LinkGroup{Name: "AAPL roll", Ticker: "AAPL", Direction: models.DirectionBullish})
	s.AddTradeToGroup(groupID, "t1", models.TradeActionInitial)
	s.AddTradeToGroup(groupID, "t2", models.TradeActionRoll)
	return s
}

func TestConfirm_PersistsTradesAndTheses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO trades").WithArgs(anyArgs(15)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO trades").WithArgs(anyArgs(15)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO theses").WithArgs(anyArgs(6)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO thesis_trades").WithArgs(anyArgs(2)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO thesis_trades").WithArgs(anyArgs(2)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewConfirmService(mock, nil)
	result, err := svc.Confirm(context.Background(), "user-1", confirmSession(t))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.ThesesCreated)
	assert.Len(t, result.TradeIDs, 2)
	assert.Len(t, result.ThesisIDs, 1)
	assert.Empty(t, result.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_CollectsPerTradeErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO trades").WithArgs(anyArgs(15)...).WillReturnError(errors.New("unique violation"))
	mock.ExpectExec("INSERT INTO trades").WithArgs(anyArgs(15)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO theses").WithArgs(anyArgs(6)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Only the persisted trade gets a membership row.
	mock.ExpectExec("INSERT INTO thesis_trades").WithArgs(anyArgs(2)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewConfirmService(mock, nil)
	result, err := svc.Confirm(context.Background(), "user-1", confirmSession(t))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "t1", result.Errors[0].TradeID)
	assert.Contains(t, result.Errors[0].Error, "unique violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_MergeIntoExistingThesis(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	opened := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := wizard.NewSession()
	s.UploadSuccess(models.UploadBatch{
		BatchID: "batch-43",
		Trades: []models.ParsedTrade{
			{ID: "t1", Ticker: "NVDA", OpenedAt: opened, Status: models.TradeStatusOpen, IsValid: true},
		},
		Summary: models.UploadSummary{TotalRows: 1, ValidTrades: 1},
	})
	s.ApproveTrade("t1", nil, "")
	groupID := s.CreateLinkGroup(models.LinkGroup{Name: "NVDA runner", Ticker: "NVDA"})
	existing := "existing-thesis-9"
	s.UpdateLinkGroup(groupID, models.LinkGroupUpdate{ExistingThesisID: &existing})
	s.AddTradeToGroup(groupID, "t1", models.TradeActionAdd)

	mock.ExpectExec("INSERT INTO trades").WithArgs(anyArgs(15)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// No thesis insert: merging into an existing one.
	mock.ExpectExec("INSERT INTO thesis_trades").WithArgs(anyArgs(2)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewConfirmService(mock, nil)
	result, err := svc.Confirm(context.Background(), "user-1", s)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ThesesCreated)
	assert.Equal(t, []string{existing}, result.ThesisIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
