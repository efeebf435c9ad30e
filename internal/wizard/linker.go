package wizard

import (
	"github.com/google/uuid"

	"github.com/mkarlsen/tradescribe/internal/models"
)

// SetSuggestions replaces the pending suggestion list.
func (s *Session) SetSuggestions(list []models.LinkSuggestion) {
	s.Suggestions = list
	s.SuggestionsLoading = false
}

// SetSuggestionsLoading toggles the suggestion-fetch loading flag.
func (s *Session) SetSuggestionsLoading(loading bool) {
	s.SuggestionsLoading = loading
}

// AcceptSuggestion converts a pending suggestion into a fresh link group
// and removes it from the suggestion list. Unknown ids are ignored. The
// member trades' decisions are not linked here; that happens through
// AddTradeToGroup (membership is the authoritative linkage).
func (s *Session) AcceptSuggestion(suggestionID string) {
	idx := -1
	for i := range s.Suggestions {
		if s.Suggestions[i].ID == suggestionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	sug := s.Suggestions[idx]

	ticker := ""
	if len(sug.TradeIDs) > 0 {
		if t := s.trade(sug.TradeIDs[0]); t != nil {
			ticker = t.Ticker
		}
	}

	s.LinkGroups = append(s.LinkGroups, models.LinkGroup{
		ID:        uuid.NewString(),
		Name:      sug.SuggestedName,
		Ticker:    ticker,
		Direction: sug.SuggestedDirection,
		TradeIDs:  append([]string(nil), sug.TradeIDs...),
		IsNew:     true,
	})
	s.Suggestions = append(s.Suggestions[:idx], s.Suggestions[idx+1:]...)
}

// DismissSuggestion discards a pending suggestion without creating a group.
func (s *Session) DismissSuggestion(suggestionID string) {
	for i := range s.Suggestions {
		if s.Suggestions[i].ID == suggestionID {
			s.Suggestions = append(s.Suggestions[:i], s.Suggestions[i+1:]...)
			return
		}
	}
}

// CreateLinkGroup adds a manually constructed group. The id and IsNew flag
// are always stamped fresh; the caller's values for them are ignored.
// Returns the new group's id.
func (s *Session) CreateLinkGroup(group models.LinkGroup) string {
	group.ID = uuid.NewString()
	group.IsNew = true
	s.LinkGroups = append(s.LinkGroups, group)
	return group.ID
}

// UpdateLinkGroup applies a sparse field patch to an existing group.
func (s *Session) UpdateLinkGroup(groupID string, updates models.LinkGroupUpdate) {
	g := s.group(groupID)
	if g == nil {
		return
	}
	if updates.Name != nil {
		g.Name = *updates.Name
	}
	if updates.Ticker != nil {
		g.Ticker = *updates.Ticker
	}
	if updates.Direction != nil {
		g.Direction = *updates.Direction
	}
	if updates.ExistingThesisID != nil {
		g.ExistingThesisID = *updates.ExistingThesisID
	}
}

// DeleteLinkGroup removes a group and cascade-clears the linked-group
// reference on any decision still pointing at it.
func (s *Session) DeleteLinkGroup(groupID string) {
	for i := range s.LinkGroups {
		if s.LinkGroups[i].ID == groupID {
			s.LinkGroups = append(s.LinkGroups[:i], s.LinkGroups[i+1:]...)
			break
		}
	}
	for _, d := range s.Decisions {
		if d.LinkedGroupID == groupID {
			d.LinkedGroupID = ""
			d.TradeAction = ""
		}
	}
}

// AddTradeToGroup appends a trade to the group's membership. Removal from
// any prior group must be explicit; membership is not deduplicated here.
// When an action is supplied and a decision already exists for the trade,
// the decision-side linkage is set as well; otherwise it is skipped.
func (s *Session) AddTradeToGroup(groupID, tradeID string, action models.TradeAction) {
	g := s.group(groupID)
	if g == nil {
		return
	}
	g.TradeIDs = append(g.TradeIDs, tradeID)

	if action == "" {
		return
	}
	if d, ok := s.Decisions[tradeID]; ok {
		d.LinkedGroupID = groupID
		d.TradeAction = action
	}
}

// RemoveTradeFromGroup removes a trade from the group's membership. The
// decision-side linkage is cleared only when it currently points at this
// group; removal from an unrelated group leaves it untouched.
func (s *Session) RemoveTradeFromGroup(groupID, tradeID string) {
	g := s.group(groupID)
	if g == nil {
		return
	}
	g.TradeIDs = removeString(g.TradeIDs, tradeID)

	if d, ok := s.Decisions[tradeID]; ok && d.LinkedGroupID == groupID {
		d.LinkedGroupID = ""
		d.TradeAction = ""
	}
}

// ApprovedTrades returns the trades whose decision action is approve, in
// batch order, with edits unresolved. Use TradeWithEdits for the merged
// view.
func (s *Session) ApprovedTrades() []models.ParsedTrade {
	out := make([]models.ParsedTrade, 0, len(s.Decisions))
	for _, t := range s.Trades {
		if d, ok := s.Decisions[t.ID]; ok && d.Action == models.DecisionApprove {
			out = append(out, t)
		}
	}
	return out
}

// UnlinkedTrades returns approved trades absent from every group's
// membership. The set difference runs against group membership, not the
// decisions' LinkedGroupID field.
func (s *Session) UnlinkedTrades() []models.ParsedTrade {
	linked := make(map[string]struct{})
	for _, g := range s.LinkGroups {
		for _, id := range g.TradeIDs {
			linked[id] = struct{}{}
		}
	}

	approved := s.ApprovedTrades()
	out := make([]models.ParsedTrade, 0, len(approved))
	for _, t := range approved {
		if _, ok := linked[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *Session) group(groupID string) *models.LinkGroup {
	for i := range s.LinkGroups {
		if s.LinkGroups[i].ID == groupID {
			return &s.LinkGroups[i]
		}
	}
	return nil
}
