// Package debugger implements the Run action: execute or simulate the
// editor code, then ask the assistant to explain the result and suggest a fix.
package debugger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/runner"
)

// Executor runs code for a language.
type Executor interface {
	Run(ctx context.Context, lang domain.Language, code string) (runner.Result, error)
}

// Assistant is the subset of the assistant client the pipeline calls.
type Assistant interface {
	ExplainError(ctx context.Context, in assistant.ExplainErrorInput) (assistant.ExplainErrorOutput, error)
	SuggestCodeFix(ctx context.Context, in assistant.SuggestCodeFixInput) (assistant.SuggestCodeFixOutput, error)
}

// History persists finished runs.
type History interface {
	SaveRun(ctx context.Context, run *domain.Run) error
}

// Stage names a step of the pipeline reported to an Observer.
type Stage string

const (
	StageOutput      Stage = "output"
	StageExplanation Stage = "explanation"
	StageFix         Stage = "fix"
	StageDone        Stage = "done"
)

// Observer receives a snapshot of the report after each stage.
type Observer func(stage Stage, snapshot Report)

// Request is one press of the Run button.
type Request struct {
	UserID    string
	SessionID string
	Language  domain.Language
	Code      string
	// SkipAI stops after execution.
	SkipAI bool
}

// Report is what the editor panels show after a run.
type Report struct {
	RunID        string           `json:"run_id,omitempty"`
	Output       string           `json:"output"`
	Explanation  string           `json:"explanation"`
	SuggestedFix string           `json:"suggested_fix"`
	Notice       *domain.Notice   `json:"notice,omitempty"`
	Status       domain.RunStatus `json:"status,omitempty"`
	Execution    runner.Result    `json:"execution"`
	AIError      string           `json:"ai_error,omitempty"`
}

// Pipeline sequences execution and the two AI calls.
type Pipeline struct {
	exec    Executor
	ai      Assistant
	history History
}

// New creates a pipeline. history may be nil.
func New(exec Executor, ai Assistant, history History) *Pipeline {
	return &Pipeline{exec: exec, ai: ai, history: history}
}

// Run executes req. Failures of the user's code and of the AI calls are
// reported in the Report; the error is reserved for execution
// infrastructure failures.
func (p *Pipeline) Run(ctx context.Context, req Request, observe Observer) (Report, error) {
	if observe == nil {
		observe = func(Stage, Report) {}
	}

	var rep Report
	if strings.TrimSpace(req.Code) == "" {
		notice := domain.NoticeEmptyCode
		rep.Notice = &notice
		observe(StageDone, rep)
		return rep, nil
	}

	start := time.Now()
	res, err := p.exec.Run(ctx, req.Language, req.Code)
	if err != nil {
		return rep, fmt.Errorf("execute %s code: %w", req.Language.ID, err)
	}
	rep.RunID = uuid.NewString()
	rep.Execution = res
	rep.Output = res.Output
	observe(StageOutput, rep)

	if req.SkipAI {
		rep.Status = domain.RunStatusExecuted
	} else {
		p.analyze(ctx, req, &rep, observe)
	}

	p.save(ctx, req, rep, time.Since(start))
	observe(StageDone, rep)
	return rep, nil
}

func (p *Pipeline) analyze(ctx context.Context, req Request, rep *Report, observe Observer) {
	res := rep.Execution

	explanation, err := p.ai.ExplainError(ctx, assistant.ExplainErrorInput{
		Code:         req.Code,
		Language:     req.Language.ID,
		ErrorMessage: errorMessageFor(req.Language, res),
	})
	if err != nil {
		p.fail(req, rep, err)
		return
	}
	rep.Explanation = explanation.Explanation
	observe(StageExplanation, *rep)

	fix, err := p.ai.SuggestCodeFix(ctx, assistant.SuggestCodeFixInput{
		Code:             req.Code,
		Language:         req.Language.ID,
		ErrorDescription: errorDescriptionFor(req.Language, res),
	})
	if err != nil {
		p.fail(req, rep, err)
		return
	}
	rep.SuggestedFix = fix.Render()
	observe(StageFix, *rep)

	notice := domain.NoticeAnalysisComplete
	rep.Notice = &notice
	rep.Status = domain.RunStatusAnalyzed
}

// fail keeps whatever the run already produced and fills the empty panels.
func (p *Pipeline) fail(req Request, rep *Report, err error) {
	slog.Error("AI processing error", "language", req.Language.ID, "session_id", req.SessionID, "error", err)

	if rep.Explanation == "" {
		rep.Explanation = "Failed to get explanation from AI. " + err.Error()
	}
	if rep.SuggestedFix == "" {
		rep.SuggestedFix = "Failed to get suggested fix from AI. " + err.Error()
	}
	notice := domain.NoticeAIError
	rep.Notice = &notice
	rep.Status = domain.RunStatusAIFailed
	rep.AIError = err.Error()
}

func (p *Pipeline) save(ctx context.Context, req Request, rep Report, elapsed time.Duration) {
	if p.history == nil || req.UserID == "" {
		return
	}
	run := &domain.Run{
		ID:           rep.RunID,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		Language:     req.Language.ID,
		Code:         req.Code,
		Output:       rep.Output,
		ErrorMessage: rep.Execution.ErrorMessage,
		Explanation:  rep.Explanation,
		SuggestedFix: rep.SuggestedFix,
		Status:       rep.Status,
		DurationMS:   elapsed.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if err := p.history.SaveRun(ctx, run); err != nil {
		slog.Warn("Failed to save run history", "run_id", run.ID, "error", err)
	}
}

func succeeded(res runner.Result) bool {
	return res.Live && !res.Failed
}

func label(lang domain.Language) string {
	if lang.Label != "" {
		return lang.Label
	}
	return lang.ID
}

func errorMessageFor(lang domain.Language, res runner.Result) string {
	if succeeded(res) {
		return label(lang) + " code executed successfully. No runtime errors detected."
	}
	if res.ErrorMessage != "" {
		return res.ErrorMessage
	}
	return "No specific error message captured."
}

func errorDescriptionFor(lang domain.Language, res runner.Result) string {
	if succeeded(res) {
		return "The " + label(lang) + " code ran without errors. Please review it for best practices, potential logic flaws, or areas for improvement."
	}
	if res.ErrorDescription != "" {
		return res.ErrorDescription
	}
	return "No specific error description available. Analyze for general issues."
}
