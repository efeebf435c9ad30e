package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/models"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

// DBExecutor is the slice of pgxpool.Pool the confirm service needs.
// Satisfied by *pgxpool.Pool and by pgxmock in tests.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const (
	insertTradeSQL = `
		INSERT INTO trades (id, user_id, batch_id, ticker, strategy, opened_at, closed_at,
			debit_credit, realized_pnl, status, legs, description, notes, trade_action, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	insertThesisSQL = `
		INSERT INTO theses (id, user_id, name, ticker, direction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertMembershipSQL = `
		INSERT INTO thesis_trades (thesis_id, trade_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

// ConfirmService persists an import session's approved trades and link
// groups, producing the ImportResult the wizard records verbatim.
type ConfirmService struct {
	db     DBExecutor
	logger *zap.Logger
}

// NewConfirmService creates a confirm service.
func NewConfirmService(db DBExecutor, logger *zap.Logger) *ConfirmService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmService{db: db, logger: logger}
}

// Confirm writes the approved trades (edits resolved) and the link groups.
// Per-trade insert failures are collected in the result rather than
// aborting the whole import; a group whose thesis cannot be created is
// skipped with its members reported as errors.
func (c *ConfirmService) Confirm(ctx context.Context, userID string, sess *wizard.Session) (*models.ImportResult, error) {
	now := time.Now()
	result := &models.ImportResult{Skipped: sess.SkippedCount}

	// wizard trade id -> persisted trade id
	persisted := make(map[string]string)

	for _, t := range sess.ApprovedTrades() {
		merged := sess.TradeWithEdits(t.ID)
		if merged == nil {
			continue
		}
		d := sess.TradeDecision(t.ID)

		dbID := uuid.NewString()
		_, err := c.db.Exec(ctx, insertTradeSQL,
			dbID,
			userID,
			sess.BatchID,
			merged.Ticker,
			string(merged.Strategy),
			merged.OpenedAt,
			merged.ClosedAt,
			merged.DebitCredit,
			merged.RealizedPnL,
			string(merged.Status),
			merged.Legs,
			merged.Description,
			d.Notes,
			string(d.TradeAction),
			now,
		)
		if err != nil {
			c.logger.Warn("failed to persist trade", zap.String("trade_id", t.ID), zap.Error(err))
			result.Errors = append(result.Errors, models.ImportError{TradeID: t.ID, Error: err.Error()})
			continue
		}
		persisted[t.ID] = dbID
		result.TradeIDs = append(result.TradeIDs, dbID)
		result.Imported++
	}

	for _, g := range sess.LinkGroups {
		thesisID := g.ExistingThesisID
		if thesisID == "" {
			thesisID = uuid.NewString()
			_, err := c.db.Exec(ctx, insertThesisSQL,
				thesisID, userID, g.Name, g.Ticker, string(g.Direction), now)
			if err != nil {
				c.logger.Warn("failed to create thesis", zap.String("group_id", g.ID), zap.Error(err))
				for _, id := range g.TradeIDs {
					result.Errors = append(result.Errors, models.ImportError{TradeID: id, Error: "thesis creation failed: " + err.Error()})
				}
				continue
			}
			result.ThesesCreated++
		}
		result.ThesisIDs = append(result.ThesisIDs, thesisID)

		members := make([]string, 0, len(g.TradeIDs)+len(g.ExistingTradeIDs))
		for _, id := range g.TradeIDs {
			if dbID, ok := persisted[id]; ok {
				members = append(members, dbID)
			}
		}
		members = append(members, g.ExistingTradeIDs...)

		for _, dbID := range members {
			if _, err := c.db.Exec(ctx, insertMembershipSQL, thesisID, dbID); err != nil {
				c.logger.Warn("failed to link trade to thesis",
					zap.String("thesis_id", thesisID), zap.String("trade_id", dbID), zap.Error(err))
				result.Errors = append(result.Errors, models.ImportError{TradeID: dbID, Error: err.Error()})
			}
		}
	}

	c.logger.Info("import confirmed",
		zap.String("batch_id", sess.BatchID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("theses_created", result.ThesesCreated),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}
