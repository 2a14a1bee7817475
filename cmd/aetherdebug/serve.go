package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aetherdebug/aetherdebug/internal/api"
	"github.com/aetherdebug/aetherdebug/internal/container"
	"github.com/aetherdebug/aetherdebug/internal/identity"
	"github.com/aetherdebug/aetherdebug/internal/middleware"
	"github.com/aetherdebug/aetherdebug/internal/stream"
	"github.com/aetherdebug/aetherdebug/internal/workspace"
	"github.com/aetherdebug/aetherdebug/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the embedded editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server logs JSON to stdout like any other service.
			setupLogging(os.Stdout, st.cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, st)
		},
	}
}

func serve(ctx context.Context, st *cliState) error {
	cfg := st.cfg
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "version", version)

	a, err := newApp(ctx, cfg, appOptions{history: true})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("Failed to close resources", "error", closeErr)
		}
	}()

	sessions := workspace.NewManager(a.catalog, a.pipeline)
	registry := stream.NewRegistry()

	baseHandler := api.NewHandler(a.repo, a.catalog, sessions, a.pipeline, a.assistant, api.ServerInfo{
		AIEnabled:           cfg.Gemini.Enabled(),
		SandboxEnabled:      a.sandbox != nil,
		InterpretersEnabled: cfg.Run.Interpreters,
		Model:               a.model,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	wsHandler := stream.NewHandler(sessions, registry, limiter, cfg.AllowedOrigins(), cfg.IsDevelopment())
	aiLimit := limiter.Limit(func(r *http.Request) string {
		return identity.UserIDFromContext(r.Context())
	})

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins(), identity.SessionHeaderName))
	r.Use(identity.Middleware(a.repo, cfg.IsDevelopment()))

	baseHandler.RegisterRoutes(r, aiLimit)

	// WebSocket endpoint.
	r.Get("/ws/debug", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: websocket streams and AI calls outlive any fixed bound.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	var remover container.StaleRemover
	if a.sandbox != nil {
		remover = a.sandbox
	}
	container.StartJanitor(ctx, a.repo, remover, cfg.HistoryTTL, func() {
		if n := sessions.Prune(cfg.SessionIdleTTL); n > 0 {
			slog.Info("Pruned idle editor sessions", "count", n, "remaining", sessions.Count())
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		registry.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}
