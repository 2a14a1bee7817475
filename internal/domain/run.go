package domain

import (
	"time"
)

// RunStatus classifies how an analysis run ended.
type RunStatus string

const (
	// RunStatusAnalyzed means execution and both AI calls succeeded.
	RunStatusAnalyzed RunStatus = "analyzed"
	// RunStatusAIFailed means execution finished but an AI call failed.
	RunStatusAIFailed RunStatus = "ai_failed"
	// RunStatusExecuted means only execution was requested.
	RunStatusExecuted RunStatus = "executed"
)

// Run is a persisted record of one "Run" action.
type Run struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	SessionID    string    `json:"session_id"`
	Language     string    `json:"language"`
	Code         string    `json:"code"`
	Output       string    `json:"output"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
	SuggestedFix string    `json:"suggested_fix,omitempty"`
	Status       RunStatus `json:"status"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Failed reports whether execution of the code produced an error.
func (r *Run) Failed() bool {
	return r.ErrorMessage != ""
}
