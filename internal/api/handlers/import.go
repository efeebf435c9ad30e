package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/importer"
	"github.com/mkarlsen/tradescribe/internal/middleware"
	"github.com/mkarlsen/tradescribe/internal/models"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

// maxUploadBytes caps broker CSV uploads at 10 MB.
const maxUploadBytes = 10 << 20

// Suggester produces link suggestions for a session's approved trades.
type Suggester interface {
	Suggest(ctx context.Context, sess *wizard.Session) ([]models.LinkSuggestion, error)
}

// Confirmer persists an import session and returns the result.
type Confirmer interface {
	Confirm(ctx context.Context, userID string, sess *wizard.Session) (*models.ImportResult, error)
}

// ImportHandler serves the Smart Import wizard endpoints.
type ImportHandler struct {
	sessions  *SessionManager
	parser    *importer.Parser
	suggester Suggester
	confirmer Confirmer
	logger    *zap.Logger
}

// NewImportHandler wires the wizard's collaborators into an HTTP handler.
func NewImportHandler(sessions *SessionManager, parser *importer.Parser, suggester Suggester, confirmer Confirmer, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{
		sessions:  sessions,
		parser:    parser,
		suggester: suggester,
		confirmer: confirmer,
		logger:    logger,
	}
}

// sessionView is the wire shape of a wizard session.
type sessionView struct {
	Step               wizard.Step                      `json:"step"`
	FileName           string                           `json:"file_name,omitempty"`
	BatchID            string                           `json:"batch_id,omitempty"`
	Trades             []models.ParsedTrade             `json:"trades,omitempty"`
	Summary            models.UploadSummary             `json:"summary"`
	ReviewIndex        int                              `json:"review_index"`
	ReviewQueue        []models.ParsedTrade             `json:"review_queue,omitempty"`
	Decisions          map[string]*models.TradeDecision `json:"decisions,omitempty"`
	LinkGroups         []models.LinkGroup               `json:"link_groups,omitempty"`
	Suggestions        []models.LinkSuggestion          `json:"suggestions,omitempty"`
	ApprovedCount      int                              `json:"approved_count"`
	SkippedCount       int                              `json:"skipped_count"`
	PendingCount       int                              `json:"pending_count"`
	ReviewComplete     bool                             `json:"review_complete"`
	Result             *models.ImportResult             `json:"result,omitempty"`
	Uploading          bool                             `json:"uploading,omitempty"`
	UploadError        string                           `json:"upload_error,omitempty"`
	SuggestionsLoading bool                             `json:"suggestions_loading,omitempty"`
	Confirming         bool                             `json:"confirming,omitempty"`
	ConfirmError       string                           `json:"confirm_error,omitempty"`
}

func viewOf(sess *wizard.Session) sessionView {
	return sessionView{
		Step:               sess.Step,
		FileName:           sess.FileName,
		BatchID:            sess.BatchID,
		Trades:             sess.Trades,
		Summary:            sess.Summary,
		ReviewIndex:        sess.ReviewIndex,
		ReviewQueue:        sess.ReviewQueue(),
		Decisions:          sess.Decisions,
		LinkGroups:         sess.LinkGroups,
		Suggestions:        sess.Suggestions,
		ApprovedCount:      sess.ApprovedCount,
		SkippedCount:       sess.SkippedCount,
		PendingCount:       sess.PendingCount,
		ReviewComplete:     sess.ReviewComplete(),
		Result:             sess.Result,
		Uploading:          sess.Uploading,
		UploadError:        sess.UploadError,
		SuggestionsLoading: sess.SuggestionsLoading,
		Confirming:         sess.Confirming,
		ConfirmError:       sess.ConfirmError,
	}
}

// respond runs a mutation under the session lock and replies with the
// updated session view.
func (h *ImportHandler) respond(c *gin.Context, mutate func(*wizard.Session)) {
	userID := middleware.UserID(c)
	var view sessionView
	err := h.sessions.WithSession(c.Request.Context(), userID, func(sess *wizard.Session) error {
		if mutate != nil {
			mutate(sess)
		}
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		middleware.RecordError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSession returns the current wizard state, restoring a persisted
// session if one exists.
func (h *ImportHandler) GetSession(c *gin.Context) {
	h.respond(c, nil)
}

// ResetSession abandons the import and drops the stored session.
func (h *ImportHandler) ResetSession(c *gin.Context) {
	userID := middleware.UserID(c)
	h.sessions.Drop(c.Request.Context(), userID)
	c.JSON(http.StatusOK, viewOf(wizard.NewSession()))
}

// Upload parses a multipart broker CSV into a new batch. Parse failures
// land in the session's upload error rather than failing the request.
func (h *ImportHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 10MB limit"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are supported"})
		return
	}

	batch, parseErr := h.parser.Parse(file)

	h.respond(c, func(sess *wizard.Session) {
		sess.SetFile(header.Filename)
		sess.StartUpload()
		if parseErr != nil {
			h.logger.Warn("csv parse failed",
				zap.String("file", header.Filename), zap.Error(parseErr))
			sess.SetUploadError(parseErr.Error())
			return
		}
		sess.UploadSuccess(*batch)
		h.logger.Info("batch uploaded",
			zap.String("batch_id", batch.BatchID),
			zap.Int("total_rows", batch.Summary.TotalRows),
			zap.Int("valid", batch.Summary.ValidTrades))
	})
}

type stepRequest struct {
	Step string `json:"step" binding:"required"`
}

// SetStep jumps to a named wizard step.
func (h *ImportHandler) SetStep(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	step := wizard.Step(req.Step)
	if !wizard.ValidStep(step) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown step %q", req.Step)})
		return
	}
	h.respond(c, func(sess *wizard.Session) { sess.SetStep(step) })
}

// GoBack steps backward in the wizard order.
func (h *ImportHandler) GoBack(c *gin.Context) {
	h.respond(c, func(sess *wizard.Session) { sess.GoBack() })
}

type decisionRequest struct {
	TradeID string             `json:"trade_id" binding:"required"`
	Edits   *models.TradeEdits `json:"edits,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

// Approve records an approve decision for one trade.
func (h *ImportHandler) Approve(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) {
		sess.ApproveTrade(req.TradeID, req.Edits, req.Notes)
	})
}

// Skip records a skip decision for one trade.
func (h *ImportHandler) Skip(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) { sess.SkipTrade(req.TradeID) })
}

// Undo reverts the most recent review decision.
func (h *ImportHandler) Undo(c *gin.Context) {
	h.respond(c, func(sess *wizard.Session) { sess.UndoLast() })
}

type gotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

// GoToTrade moves the review cursor to an index, clamped to the queue.
func (h *ImportHandler) GoToTrade(c *gin.Context) {
	var req gotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) { sess.GoToTrade(*req.Index) })
}

// Suggestions asks the suggestion service for thesis groupings over the
// approved, not-yet-linked trades and stores them on the session.
func (h *ImportHandler) Suggestions(c *gin.Context) {
	userID := middleware.UserID(c)
	var view sessionView
	err := h.sessions.WithSession(c.Request.Context(), userID, func(sess *wizard.Session) error {
		sess.SetSuggestionsLoading(true)
		list, err := h.suggester.Suggest(c.Request.Context(), sess)
		sess.SetSuggestionsLoading(false)
		if err != nil {
			return fmt.Errorf("suggestion generation failed: %w", err)
		}
		sess.SetSuggestions(list)
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		middleware.RecordError(c, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// AcceptSuggestion promotes one suggestion into a link group.
func (h *ImportHandler) AcceptSuggestion(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, func(sess *wizard.Session) { sess.AcceptSuggestion(id) })
}

// DismissSuggestion discards one suggestion.
func (h *ImportHandler) DismissSuggestion(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, func(sess *wizard.Session) { sess.DismissSuggestion(id) })
}

// CreateGroup adds a manually assembled link group.
func (h *ImportHandler) CreateGroup(c *gin.Context) {
	var group models.LinkGroup
	if err := c.ShouldBindJSON(&group); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) { sess.CreateLinkGroup(group) })
}

// UpdateGroup patches a link group's fields.
func (h *ImportHandler) UpdateGroup(c *gin.Context) {
	id := c.Param("id")
	var updates models.LinkGroupUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) { sess.UpdateLinkGroup(id, updates) })
}

// DeleteGroup removes a link group and clears decisions pointing at it.
func (h *ImportHandler) DeleteGroup(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, func(sess *wizard.Session) { sess.DeleteLinkGroup(id) })
}

type membershipRequest struct {
	TradeID string             `json:"trade_id" binding:"required"`
	Action  models.TradeAction `json:"action,omitempty"`
}

// AddTradeToGroup links a trade into a group with an optional action tag.
func (h *ImportHandler) AddTradeToGroup(c *gin.Context) {
	id := c.Param("id")
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, func(sess *wizard.Session) {
		sess.AddTradeToGroup(id, req.TradeID, req.Action)
	})
}

// RemoveTradeFromGroup unlinks a trade from a group.
func (h *ImportHandler) RemoveTradeFromGroup(c *gin.Context) {
	id := c.Param("id")
	tradeID := c.Param("tradeId")
	h.respond(c, func(sess *wizard.Session) { sess.RemoveTradeFromGroup(id, tradeID) })
}

// Confirm persists the approved trades and link groups, recording the
// result on the session. Persistence failures land in the session's
// confirm error so the user can retry.
func (h *ImportHandler) Confirm(c *gin.Context) {
	userID := middleware.UserID(c)
	var view sessionView
	err := h.sessions.WithSession(c.Request.Context(), userID, func(sess *wizard.Session) error {
		if !sess.ReviewComplete() {
			sess.SetConfirmError("review is not complete")
			view = viewOf(sess)
			return nil
		}
		sess.StartConfirm()
		result, err := h.confirmer.Confirm(c.Request.Context(), userID, sess)
		if err != nil {
			h.logger.Error("confirm failed", zap.String("batch_id", sess.BatchID), zap.Error(err))
			sess.SetConfirmError(err.Error())
		} else {
			sess.ConfirmSuccess(*result)
		}
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		middleware.RecordError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}
