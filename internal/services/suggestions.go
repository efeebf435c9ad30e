package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/ai/llm"
	"github.com/mkarlsen/tradescribe/internal/models"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

const suggestionSystemPrompt = `You are a trading journal assistant. You group a user's imported trades into theses: bundles of trades that share one trading rationale, such as a rolled option position, an add to a winner, or a hedge against an existing position.

Respond with a single JSON object of the form:
{"suggestions": [{"trade_ids": ["..."], "pattern": "roll-chain", "reason": "...", "suggested_name": "...", "suggested_direction": "BULLISH|BEARISH|NEUTRAL|VOLATILE", "confidence": 0.0, "trade_actions": {"<trade_id>": "INITIAL|ADD|REDUCE|ROLL|CONVERT|CLOSE|ASSIGNED|EXERCISED"}}]}

Only reference the trade ids you were given. Confidence is between 0 and 1.`

// SuggestionService asks the configured LLM to propose thesis groupings
// for the approved trades of an import session. When no client is
// configured or the call fails, it degrades to deterministic per-ticker
// grouping so the link step always has something to offer.
type SuggestionService struct {
	client llm.Client
	logger *zap.Logger
}

// NewSuggestionService creates a suggestion service. A nil client enables
// heuristic-only mode.
func NewSuggestionService(client llm.Client, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{client: client, logger: logger}
}

// Suggest returns link suggestions for the session's approved trades,
// edits resolved. Trades already in a group are not re-suggested.
func (s *SuggestionService) Suggest(ctx context.Context, sess *wizard.Session) ([]models.LinkSuggestion, error) {
	candidates := make([]models.ParsedTrade, 0)
	for _, t := range sess.UnlinkedTrades() {
		if merged := sess.TradeWithEdits(t.ID); merged != nil {
			candidates = append(candidates, *merged)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if s.client == nil {
		return s.heuristicSuggestions(candidates), nil
	}

	suggestions, err := s.llmSuggestions(ctx, candidates)
	if err != nil {
		s.logger.Warn("LLM suggestion call failed, falling back to heuristic grouping", zap.Error(err))
		return s.heuristicSuggestions(candidates), nil
	}
	return suggestions, nil
}

type llmSuggestionPayload struct {
	Suggestions []struct {
		TradeIDs           []string                      `json:"trade_ids"`
		Pattern            string                        `json:"pattern"`
		Reason             string                        `json:"reason"`
		SuggestedName      string                        `json:"suggested_name"`
		SuggestedDirection string                        `json:"suggested_direction"`
		Confidence         float64                       `json:"confidence"`
		TradeActions       map[string]models.TradeAction `json:"trade_actions"`
	} `json:"suggestions"`
}

func (s *SuggestionService) llmSuggestions(ctx context.Context, trades []models.ParsedTrade) ([]models.LinkSuggestion, error) {
	known := make(map[string]bool, len(trades))
	var sb strings.Builder
	for _, t := range trades {
		known[t.ID] = true
		fmt.Fprintf(&sb, "- id=%s ticker=%s strategy=%s opened=%s amount=%s status=%s",
			t.ID, t.Ticker, t.StrategyLabel, t.OpenedAt.Format("2006-01-02"), t.DebitCredit.String(), t.Status)
		if t.ClosedAt != nil {
			fmt.Fprintf(&sb, " closed=%s", t.ClosedAt.Format("2006-01-02"))
		}
		if t.Description != "" {
			fmt.Fprintf(&sb, " note=%q", t.Description)
		}
		sb.WriteString("\n")
	}

	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: suggestionSystemPrompt},
			{Role: llm.RoleUser, Content: "Group these trades into theses:\n" + sb.String()},
		},
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var payload llmSuggestionPayload
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Message.Content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
	}

	out := make([]models.LinkSuggestion, 0, len(payload.Suggestions))
	for _, raw := range payload.Suggestions {
		ids := make([]string, 0, len(raw.TradeIDs))
		for _, id := range raw.TradeIDs {
			if known[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		out = append(out, models.LinkSuggestion{
			ID:                 uuid.NewString(),
			Confidence:         clamp01(raw.Confidence),
			TradeIDs:           ids,
			Pattern:            raw.Pattern,
			Reason:             raw.Reason,
			SuggestedName:      raw.SuggestedName,
			SuggestedDirection: parseDirection(raw.SuggestedDirection),
			TradeActions:       raw.TradeActions,
		})
	}
	return out, nil
}

// heuristicSuggestions groups trades sharing a ticker. Single-trade
// tickers are left for manual linking.
func (s *SuggestionService) heuristicSuggestions(trades []models.ParsedTrade) []models.LinkSuggestion {
	byTicker := make(map[string][]string)
	order := make([]string, 0)
	for _, t := range trades {
		if _, seen := byTicker[t.Ticker]; !seen {
			order = append(order, t.Ticker)
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t.ID)
	}

	out := make([]models.LinkSuggestion, 0)
	for _, ticker := range order {
		ids := byTicker[ticker]
		if len(ids) < 2 {
			continue
		}
		out = append(out, models.LinkSuggestion{
			ID:                 uuid.NewString(),
			Confidence:         0.5,
			TradeIDs:           ids,
			Pattern:            "same-ticker",
			Reason:             fmt.Sprintf("%d trades on %s in this batch", len(ids), ticker),
			SuggestedName:      ticker + " thesis",
			SuggestedDirection: models.DirectionNeutral,
		})
	}
	return out
}

func parseDirection(raw string) models.Direction {
	switch models.Direction(strings.ToUpper(raw)) {
	case models.DirectionBullish:
		return models.DirectionBullish
	case models.DirectionBearish:
		return models.DirectionBearish
	case models.DirectionVolatile:
		return models.DirectionVolatile
	default:
		return models.DirectionNeutral
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
