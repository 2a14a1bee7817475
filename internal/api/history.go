package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/identity"
)

// ListRuns returns the caller's recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to list runs", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun returns one of the caller's runs.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	runID := chi.URLParam(r, "id")

	run, err := h.repo.GetRun(r.Context(), userID, runID)
	if err != nil {
		slog.Error("Failed to get run", "user_id", userID, "run_id", runID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		Error(w, http.StatusNotFound, "run not found")
		return
	}
	JSON(w, http.StatusOK, run)
}
