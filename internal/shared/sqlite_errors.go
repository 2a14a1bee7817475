// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// IsSQLiteConflictError reports whether err is a SQLITE_BUSY or
// "database is locked" error. Both are transient and worth retrying.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetryOnConflict calls op up to attempts times. It retries only on SQLite
// conflict errors, doubling the delay from base after each failure.
// The last error is returned when attempts are exhausted.
func RetryOnConflict(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsSQLiteConflictError(err) || i == attempts-1 {
			return err
		}

		delay := base * time.Duration(1<<i)
		slog.Debug("SQLite busy, retrying", "attempt", i+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
