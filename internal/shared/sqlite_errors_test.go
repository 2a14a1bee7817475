package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSQLiteConflictError(t *testing.T) {
	assert.False(t, IsSQLiteConflictError(nil))
	assert.True(t, IsSQLiteConflictError(errors.New("exec: SQLITE_BUSY (5)")))
	assert.True(t, IsSQLiteConflictError(errors.New("database is locked")))
	assert.False(t, IsSQLiteConflictError(errors.New("no such table: runs")))
}

func TestRetryOnConflictRetriesBusy(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("constraint failed")
	err := RetryOnConflict(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnConflictGivesUp(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("database is locked")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryOnConflictHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryOnConflict(ctx, 3, time.Hour, func() error {
		return errors.New("SQLITE_BUSY")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
