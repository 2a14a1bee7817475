package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

const (
	simulatedNote = "(Note: Live execution is only available for JavaScript.)"

	pythonDivideCall  = "print(divide(10, 0))"
	zeroDivisionError = "ZeroDivisionError: division by zero"
	zeroDivisionTrace = "Traceback (most recent call last):\n" +
		"  File \"<string>\", line 5, in <module>\n" +
		"  File \"<string>\", line 2, in divide\n" +
		"ZeroDivisionError: division by zero"
)

// Simulated produces a canned run for languages that cannot execute here.
// The result gives the AI stages something to analyze.
type Simulated struct{}

// NewSimulated creates a simulated runner.
func NewSimulated() *Simulated { return &Simulated{} }

// Name implements Runner.
func (s *Simulated) Name() string { return "simulated" }

// Run implements Runner. It never fails.
func (s *Simulated) Run(_ context.Context, lang domain.Language, code string) (Result, error) {
	id := lang.ID
	res := Result{
		Output: fmt.Sprintf("Simulating %s execution...\n%s\nEncountered a simulated error. Check AI Debugger for analysis.",
			id, simulatedNote),
		ErrorMessage:     fmt.Sprintf("Simulated %s error.", id),
		ErrorDescription: fmt.Sprintf("A generic error occurred during simulated %s execution.", id),
	}

	if id == "python" {
		if strings.Contains(code, pythonDivideCall) {
			res.ErrorMessage = zeroDivisionError
			res.ErrorDescription = zeroDivisionTrace
			res.Output = fmt.Sprintf("Simulating Python execution...\n%s\nError: %s\nSee AI Debugger for analysis.",
				simulatedNote, zeroDivisionError)
		} else {
			res.Output = fmt.Sprintf("Simulating %s execution...\n%s\nNo specific error simulated for this code. AI will analyze the code structure.",
				id, simulatedNote)
		}
	}
	return res, nil
}
