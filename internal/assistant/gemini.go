package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Gemini implements Generator with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator. baseURL overrides the API endpoint
// and is normally empty.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// GenerateJSON implements Generator.
func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Disabled is a Generator that always fails with ErrUnavailable.
// It stands in when no API key is configured so the pipeline reaches its
// AI failure path instead of crashing.
type Disabled struct{}

// GenerateJSON implements Generator.
func (Disabled) GenerateJSON(context.Context, string, *genai.Schema) (string, error) {
	return "", ErrUnavailable
}
