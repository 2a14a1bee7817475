package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/identity"
	"github.com/aetherdebug/aetherdebug/internal/workspace"
)

type updateCodeRequest struct {
	Code string `json:"code"`
}

type selectLanguageRequest struct {
	Language string `json:"language"`
}

type runRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// GetSession returns the caller's editor state, creating it on first access.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := caller(r)
	JSON(w, http.StatusOK, h.sessions.Get(userID, sessionID))
}

// UpdateCode replaces the editor contents.
func (h *Handler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	var req updateCodeRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	userID, sessionID := caller(r)
	JSON(w, http.StatusOK, h.sessions.UpdateCode(userID, sessionID, req.Code))
}

// SelectLanguage switches language and resets the editor to its defaults.
func (h *Handler) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req selectLanguageRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	userID, sessionID := caller(r)

	sess, err := h.sessions.SelectLanguage(userID, sessionID, req.Language)
	switch {
	case errors.Is(err, catalog.ErrUnknownLanguage):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workspace.ErrRunInProgress):
		Error(w, http.StatusConflict, "run_in_progress")
	case err != nil:
		slog.Error("Failed to select language", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to select language")
	default:
		JSON(w, http.StatusOK, sess)
	}
}

// RunSession runs the session's code through execution and both AI calls.
func (h *Handler) RunSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := caller(r)

	sess, report, err := h.sessions.Run(r.Context(), userID, sessionID, nil)
	if errors.Is(err, workspace.ErrRunInProgress) {
		slog.Warn("Run already in progress", "user_id", userID, "session_id", sessionID)
		Error(w, http.StatusConflict, "run_in_progress")
		return
	}
	if err != nil {
		slog.Error("Run failed", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to run code")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session": sess,
		"report":  report,
	})
}

// Run executes code without touching the editor session and without AI.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	lang, err := h.catalog.Lookup(req.Language)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, sessionID := caller(r)

	report, err := h.pipeline.Run(r.Context(), debugger.Request{
		UserID:    userID,
		SessionID: sessionID,
		Language:  lang,
		Code:      req.Code,
		SkipAI:    true,
	}, nil)
	if err != nil {
		slog.Error("Stateless run failed", "user_id", userID, "language", lang.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to run code")
		return
	}
	JSON(w, http.StatusOK, report)
}

func caller(r *http.Request) (userID, sessionID string) {
	ctx := r.Context()
	return identity.UserIDFromContext(ctx), identity.SessionIDFromContext(ctx)
}
