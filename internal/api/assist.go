package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/identity"
)

// Explain returns an AI explanation of an error.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	var in assistant.ExplainErrorInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	out, err := h.assistant.ExplainError(r.Context(), in)
	if err != nil {
		assistError(w, r, "explain_error", err)
		return
	}
	JSON(w, http.StatusOK, out)
}

// Fix returns an AI suggested fix.
func (h *Handler) Fix(w http.ResponseWriter, r *http.Request) {
	var in assistant.SuggestCodeFixInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	out, err := h.assistant.SuggestCodeFix(r.Context(), in)
	if err != nil {
		assistError(w, r, "suggest_code_fix", err)
		return
	}
	JSON(w, http.StatusOK, out)
}

// Generate returns code generated from a natural language description.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var in assistant.GenerateCodeInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	out, err := h.assistant.GenerateCodeFromDescription(r.Context(), in)
	if err != nil {
		assistError(w, r, "generate_code", err)
		return
	}
	JSON(w, http.StatusOK, out)
}

func assistError(w http.ResponseWriter, r *http.Request, flow string, err error) {
	switch {
	case errors.Is(err, assistant.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assistant.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("AI flow failed", "flow", flow, "user_id", identity.UserIDFromContext(r.Context()), "error", err)
		Error(w, http.StatusBadGateway, err.Error())
	}
}
