// Package api provides HTTP handlers for the AetherDebug API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/store"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Sessions is the editor session store the handlers drive.
type Sessions interface {
	Get(userID, sessionID string) domain.Session
	UpdateCode(userID, sessionID, code string) domain.Session
	SelectLanguage(userID, sessionID, langID string) (domain.Session, error)
	Run(ctx context.Context, userID, sessionID string, observe debugger.Observer) (domain.Session, debugger.Report, error)
}

// Pipeline runs one debug request outside of any editor session.
type Pipeline interface {
	Run(ctx context.Context, req debugger.Request, observe debugger.Observer) (debugger.Report, error)
}

// Assistant exposes the three AI flows.
type Assistant interface {
	ExplainError(ctx context.Context, in assistant.ExplainErrorInput) (assistant.ExplainErrorOutput, error)
	SuggestCodeFix(ctx context.Context, in assistant.SuggestCodeFixInput) (assistant.SuggestCodeFixOutput, error)
	GenerateCodeFromDescription(ctx context.Context, in assistant.GenerateCodeInput) (assistant.GenerateCodeOutput, error)
}

// ServerInfo is reported to the frontend by /api/config.
type ServerInfo struct {
	AIEnabled           bool   `json:"ai_enabled"`
	SandboxEnabled      bool   `json:"sandbox_enabled"`
	InterpretersEnabled bool   `json:"interpreters_enabled"`
	Model               string `json:"model,omitempty"`
}

// Handler provides the API endpoints and their shared dependencies.
type Handler struct {
	repo      store.Repository
	catalog   *catalog.Catalog
	sessions  Sessions
	pipeline  Pipeline
	assistant Assistant
	info      ServerInfo
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, cat *catalog.Catalog, sessions Sessions, pipeline Pipeline, ai Assistant, info ServerInfo) *Handler {
	return &Handler{
		repo:      repo,
		catalog:   cat,
		sessions:  sessions,
		pipeline:  pipeline,
		assistant: ai,
		info:      info,
	}
}

// RegisterRoutes registers the API routes. aiLimit wraps the endpoints that
// call the model; pass nil to leave them unthrottled.
func (h *Handler) RegisterRoutes(r chi.Router, aiLimit func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/languages", h.ListLanguages)

		r.Get("/session", h.GetSession)
		r.Put("/session/code", h.UpdateCode)
		r.Put("/session/language", h.SelectLanguage)
		r.Post("/run", h.Run)

		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)

		r.Group(func(r chi.Router) {
			if aiLimit != nil {
				r.Use(aiLimit)
			}
			r.Post("/session/run", h.RunSession)
			r.Post("/explain", h.Explain)
			r.Post("/fix", h.Fix)
			r.Post("/generate", h.Generate)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a size-capped JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// decodeOrFail decodes the body and writes a 400 on failure.
func decodeOrFail(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decode(w, r, v); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
