package ordering

import (
	"encoding/json"
	"strings"
)

// Conversation modes. An empty mode is the default NONE state.
const (
	ModeNone             = ""
	ModeAwaitingModifier = "awaiting_modifier"
	ModeAwaitingExtras   = "awaiting_extras"
)

// State is the per-session conversation state carried between turns.
// LineIndex points into the cart while a line is being configured;
// ModIndex points into that item's modifier list in modifier mode.
// PendingParts holds phrases from a multi-item message waiting for the
// current line's configuration to finish.
type State struct {
	Mode         string   `json:"mode,omitempty"`
	LineIndex    int      `json:"line_index,omitempty"`
	ModIndex     int      `json:"mod_index,omitempty"`
	PendingParts []string `json:"pending_parts,omitempty"`

	// RestaurantSlug is owned by the persistence layer (draft scoping);
	// the core only round-trips it.
	RestaurantSlug string `json:"restaurant_slug,omitempty"`
}

// LoadState parses serialized conversation state. Malformed or missing
// fields default to NONE; this never errors.
func LoadState(stateJSON string) State {
	var s State
	if strings.TrimSpace(stateJSON) == "" {
		return s
	}
	if err := json.Unmarshal([]byte(stateJSON), &s); err != nil {
		return State{}
	}
	switch s.Mode {
	case ModeNone, ModeAwaitingModifier, ModeAwaitingExtras:
	default:
		return State{RestaurantSlug: s.RestaurantSlug}
	}
	return s
}

// DumpState serializes the state.
func DumpState(s State) string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// clearConfig drops the configuration cursor but keeps the pending
// phrase queue and any caller-owned fields.
func (s *State) clearConfig() {
	s.Mode = ModeNone
	s.LineIndex = 0
	s.ModIndex = 0
}

// popPending removes and returns the next queued phrase.
func (s *State) popPending() (string, bool) {
	for len(s.PendingParts) > 0 {
		next := strings.TrimSpace(s.PendingParts[0])
		s.PendingParts = s.PendingParts[1:]
		if len(s.PendingParts) == 0 {
			s.PendingParts = nil
		}
		if next != "" {
			return next, true
		}
	}
	return "", false
}
