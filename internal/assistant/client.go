package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"
)

// Generator sends a prompt to a model constrained to the given JSON schema
// and returns the raw JSON text of the reply.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Client runs the assistant prompts against a Generator. Calls are not retried.
type Client struct {
	gen Generator
}

// New creates a Client.
func New(gen Generator) *Client {
	return &Client{gen: gen}
}

// ExplainError asks the model what an error means.
func (c *Client) ExplainError(ctx context.Context, in ExplainErrorInput) (ExplainErrorOutput, error) {
	if err := in.Validate(); err != nil {
		return ExplainErrorOutput{}, err
	}
	return call[ExplainErrorOutput](ctx, c.gen, explainErrorPrompt, in, explainErrorSchema)
}

// SuggestCodeFix asks the model for a corrected version of the code.
func (c *Client) SuggestCodeFix(ctx context.Context, in SuggestCodeFixInput) (SuggestCodeFixOutput, error) {
	if err := in.Validate(); err != nil {
		return SuggestCodeFixOutput{}, err
	}
	return call[SuggestCodeFixOutput](ctx, c.gen, suggestCodeFixPrompt, in, suggestCodeFixSchema)
}

// GenerateCodeFromDescription asks the model to write code for a description.
func (c *Client) GenerateCodeFromDescription(ctx context.Context, in GenerateCodeInput) (GenerateCodeOutput, error) {
	if err := in.Validate(); err != nil {
		return GenerateCodeOutput{}, err
	}
	return call[GenerateCodeOutput](ctx, c.gen, generateCodePrompt, in, generateCodeSchema)
}

type validated interface {
	validate() error
}

func call[T validated](ctx context.Context, gen Generator, tmpl *template.Template, in any, schema *genai.Schema) (T, error) {
	var out T

	prompt, err := render(tmpl, in)
	if err != nil {
		return out, err
	}

	start := time.Now()
	text, err := gen.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return out, fmt.Errorf("%s: %w", tmpl.Name(), err)
	}
	slog.Debug("Model call completed", "prompt", tmpl.Name(), "duration", time.Since(start), "bytes", len(text))

	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return out, fmt.Errorf("%s: decode response: %w", tmpl.Name(), err)
	}
	if err := out.validate(); err != nil {
		return out, fmt.Errorf("%s: %w", tmpl.Name(), err)
	}
	return out, nil
}

// stripFences removes a markdown code fence some models put around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
