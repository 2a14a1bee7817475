package domain

import (
	"time"
)

// Session holds the editor state for one browser tab.
// It is ephemeral: created on first access, mutated on each action and
// dropped when the tab goes away.
type Session struct {
	UserID       string    `json:"-"`
	SessionID    string    `json:"session_id"`
	Code         string    `json:"code"`
	Language     string    `json:"language"`
	Output       string    `json:"output"`
	Explanation  string    `json:"explanation"`
	SuggestedFix string    `json:"suggested_fix"`
	IsLoading    bool      `json:"is_loading"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reset switches the session to lang and restores the per-language defaults.
func (s *Session) Reset(lang Language) {
	s.Language = lang.ID
	s.Code = lang.DefaultCode
	s.ClearResults()
}

// ClearResults empties the output and AI panels.
func (s *Session) ClearResults() {
	s.Output = ""
	s.Explanation = ""
	s.SuggestedFix = ""
	s.UpdatedAt = time.Now()
}
