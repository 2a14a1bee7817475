package container

import (
	"context"
	"log/slog"
	"time"

	"github.com/aetherdebug/aetherdebug/internal/store"
)

const (
	janitorInterval = 5 * time.Minute

	// Sandbox containers older than this are leftovers of crashed runs.
	staleContainerAge = 10 * time.Minute
)

// StaleRemover removes abandoned sandbox containers.
type StaleRemover interface {
	RemoveStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// StartJanitor runs a background goroutine that periodically prunes run
// history older than ttl and removes leftover sandbox containers.
// sandbox may be nil when container execution is disabled. Each hook runs
// after every sweep.
func StartJanitor(ctx context.Context, repo store.Repository, sandbox StaleRemover, ttl time.Duration, hooks ...func()) {
	ticker := time.NewTicker(janitorInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Janitor started", "interval", janitorInterval, "history_ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, sandbox, ttl)
				for _, hook := range hooks {
					hook()
				}
			case <-ctx.Done():
				slog.Info("Janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo store.Repository, sandbox StaleRemover, ttl time.Duration) {
	if ttl > 0 {
		deleted, err := repo.DeleteRunsBefore(ctx, time.Now().Add(-ttl))
		switch {
		case err != nil && ctx.Err() != nil:
			slog.Debug("Janitor: context canceled during history prune", "error", err)
		case err != nil:
			slog.Error("Janitor failed to prune run history", "error", err)
		case deleted > 0:
			slog.Info("Janitor pruned run history", "deleted", deleted)
		}
	}

	if sandbox == nil {
		return
	}
	removed, err := sandbox.RemoveStale(ctx, staleContainerAge)
	if err != nil {
		slog.Error("Janitor failed to remove stale sandbox containers", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Janitor removed stale sandbox containers", "count", removed)
	}
}
