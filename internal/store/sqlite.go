package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/shared"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond

	defaultListLimit = 20
	maxListLimit     = 100
)

const filePragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
// A dbPath of ":memory:" opens a private in-memory database.
func NewSQLite(dbPath string) (Repository, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// The driver applies _pragma parameters to every new connection.
		dsn = dbPath + filePragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		language TEXT NOT NULL,
		code TEXT NOT NULL,
		output TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		suggested_fix TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_user_created ON runs(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query,
			user.UserID, user.Username, user.LastSeenAt.Unix(),
			user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`

	var rows int64
	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// SaveRun appends a run to the history.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *domain.Run) error {
	query := `
	INSERT INTO runs (
		id, user_id, session_id, language, code, output, error_message,
		explanation, suggested_fix, status, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID, run.UserID, run.SessionID, run.Language, run.Code, run.Output,
			run.ErrorMessage, run.Explanation, run.SuggestedFix, string(run.Status),
			run.DurationMS, run.CreatedAt.UnixMilli(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, user_id, session_id, language, code, output, error_message,
		explanation, suggested_fix, status, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var createdAt int64
	if err := row.Scan(
		&run.ID, &run.UserID, &run.SessionID, &run.Language, &run.Code, &run.Output,
		&run.ErrorMessage, &run.Explanation, &run.SuggestedFix, &status,
		&run.DurationMS, &createdAt,
	); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	run.CreatedAt = time.UnixMilli(createdAt)
	return &run, nil
}

// GetRun retrieves one of the user's runs.
func (s *SQLiteStore) GetRun(ctx context.Context, userID, runID string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND user_id = ?`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}
	return run, nil
}

// ListRuns returns the user's most recent runs, newest first.
// A non-positive limit selects the default; limits are capped.
func (s *SQLiteStore) ListRuns(ctx context.Context, userID string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close runs rows", "error", closeErr)
		}
	}()

	runs := make([]*domain.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// DeleteRunsBefore removes runs created before t.
func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, t time.Time) (int64, error) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, t.UnixMilli())
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete runs before %s: %w", t.Format(time.RFC3339), err)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
