// Package assistant wraps the generative model behind three structured
// prompts: explaining an error, suggesting a fix and generating code.
package assistant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyResponse is returned when the model produced no usable output.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrUnavailable is returned by the disabled generator.
	ErrUnavailable = errors.New("AI backend is not configured")
)

// ExplainErrorInput is the request for ExplainError.
type ExplainErrorInput struct {
	Code         string `json:"code"`
	Language     string `json:"language"`
	ErrorMessage string `json:"errorMessage"`
}

// Validate checks the required fields.
func (in ExplainErrorInput) Validate() error {
	return requireFields("code", in.Code, "language", in.Language)
}

// ExplainErrorOutput is the result of ExplainError.
type ExplainErrorOutput struct {
	Explanation string `json:"explanation"`
}

func (out ExplainErrorOutput) validate() error {
	return requireOutput("explanation", out.Explanation)
}

// SuggestCodeFixInput is the request for SuggestCodeFix.
type SuggestCodeFixInput struct {
	Code             string `json:"code"`
	Language         string `json:"language"`
	ErrorDescription string `json:"errorDescription"`
}

// Validate checks the required fields.
func (in SuggestCodeFixInput) Validate() error {
	return requireFields("code", in.Code, "language", in.Language)
}

// SuggestCodeFixOutput is the result of SuggestCodeFix.
type SuggestCodeFixOutput struct {
	SuggestedFix string `json:"suggestedFix"`
	Explanation  string `json:"explanation"`
}

func (out SuggestCodeFixOutput) validate() error {
	if err := requireOutput("suggestedFix", out.SuggestedFix); err != nil {
		return err
	}
	return requireOutput("explanation", out.Explanation)
}

// Render joins the fix and its rationale the way the fix panel shows them.
func (out SuggestCodeFixOutput) Render() string {
	return out.SuggestedFix + "\n\nExplanation:\n" + out.Explanation
}

// GenerateCodeInput is the request for GenerateCodeFromDescription.
type GenerateCodeInput struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Validate checks the required fields.
func (in GenerateCodeInput) Validate() error {
	return requireFields("description", in.Description, "language", in.Language)
}

// GenerateCodeOutput is the result of GenerateCodeFromDescription.
type GenerateCodeOutput struct {
	Code string `json:"code"`
}

func (out GenerateCodeOutput) validate() error {
	return requireOutput("code", out.Code)
}

// requireFields takes name/value pairs and rejects blank values.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func requireOutput(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: missing %s", ErrEmptyResponse, field)
	}
	return nil
}
