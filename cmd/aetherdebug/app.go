package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/config"
	"github.com/aetherdebug/aetherdebug/internal/container"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/runner"
	"github.com/aetherdebug/aetherdebug/internal/store"
)

// app is the dependency graph shared by the server and the CLI commands.
type app struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	dispatcher *runner.Dispatcher
	assistant  *assistant.Client
	model      string
	repo       store.Repository // nil without history
	sandbox    *container.Sandbox
	pipeline   *debugger.Pipeline
}

type appOptions struct {
	// history opens the SQLite store and records runs.
	history bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, catalog: catalog.Default()}

	if opts.history {
		repo, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("database health check: %w", err)
		}
		a.repo = repo
		slog.Info("Database connected", "path", cfg.DBPath)
	}

	a.dispatcher = a.newDispatcher(ctx)

	var gen assistant.Generator = assistant.Disabled{}
	if cfg.Gemini.Enabled() {
		g, err := assistant.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		gen = g
		a.model = g.Model()
		slog.Info("AI features enabled", "model", a.model)
	} else {
		slog.Info("AI features disabled (GEMINI_API_KEY not set)")
	}
	a.assistant = assistant.New(gen)

	var history debugger.History
	if a.repo != nil {
		history = a.repo
	}
	a.pipeline = debugger.New(a.dispatcher, a.assistant, history)
	return a, nil
}

// newDispatcher registers the in-process runners and, when enabled and
// reachable, the container sandbox for catalog languages that have an image.
func (a *app) newDispatcher(ctx context.Context) *runner.Dispatcher {
	opts := []runner.Option{
		runner.WithTimeout(a.cfg.Run.Timeout),
		runner.WithMaxLines(a.cfg.Run.MaxLines),
	}
	js := runner.NewJavaScript(opts...)

	d := runner.NewDispatcher(runner.NewSimulated(), int64(a.cfg.Run.MaxConcurrent))
	d.Register(domain.JavaScript, js)
	if a.cfg.Run.Interpreters {
		interpreters := map[string]runner.Runner{
			"typescript": runner.NewTypeScript(js),
			"go":         runner.NewGo(opts...),
		}
		for _, lang := range a.catalog.All() {
			if r, ok := interpreters[lang.ID]; ok && lang.Interpreter {
				d.Register(lang.ID, r)
				slog.Info("Interpreter runner registered", "language", lang.ID, "runner", r.Name())
			}
		}
	}

	if !a.cfg.Sandbox.Enabled {
		return d
	}
	sb, err := container.NewSandbox(a.cfg.Sandbox.Runtime, a.cfg.Run.Timeout)
	if err == nil {
		err = sb.Ping(ctx)
	}
	if err != nil {
		slog.Warn("Container sandbox unavailable, falling back to simulation", "error", err)
		if sb != nil {
			_ = sb.Close()
		}
		return d
	}
	a.sandbox = sb
	for _, lang := range a.catalog.All() {
		if lang.Sandbox != nil && !d.IsLive(lang.ID) {
			d.Register(lang.ID, sb)
			slog.Info("Sandbox runner registered", "language", lang.ID, "image", lang.Sandbox.Image)
		}
	}
	return d
}

// Close releases the store and the Docker client.
func (a *app) Close() error {
	var errs []error
	if a.sandbox != nil {
		errs = append(errs, a.sandbox.Close())
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	return errors.Join(errs...)
}
