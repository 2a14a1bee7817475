package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// Health returns the health status of the API and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.info)
}

// ListLanguages returns the selector entries in display order.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := h.catalog.All()
	out := make([]map[string]interface{}, 0, len(langs))
	for _, l := range langs {
		out = append(out, map[string]interface{}{
			"id":           l.ID,
			"label":        l.Label,
			"live":         l.Executes(h.info.InterpretersEnabled, h.info.SandboxEnabled),
			"default_code": l.DefaultCode,
			"placeholder":  l.Placeholder(),
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"languages": out,
		"initial":   h.catalog.Initial().ID,
	})
}
