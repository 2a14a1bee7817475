// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

// Repository defines the interface for persisting users and run history.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// SaveRun appends a run to the history.
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves one of the user's runs. It returns nil, nil when absent.
	GetRun(ctx context.Context, userID, runID string) (*domain.Run, error)

	// ListRuns returns the user's most recent runs, newest first.
	ListRuns(ctx context.Context, userID string, limit int) ([]*domain.Run, error)

	// DeleteRunsBefore removes runs created before t and returns how many were deleted.
	DeleteRunsBefore(ctx context.Context, t time.Time) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
