package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

type countingRunner struct {
	name  string
	calls atomic.Int32
	hold  chan struct{}
	err   error
}

func (c *countingRunner) Name() string { return c.name }

func (c *countingRunner) Run(ctx context.Context, _ domain.Language, code string) (Result, error) {
	c.calls.Add(1)
	if c.hold != nil {
		select {
		case <-c.hold:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if c.err != nil {
		return Result{}, c.err
	}
	return Result{Output: code, Live: true}, nil
}

func TestDispatcherRoutesByLanguage(t *testing.T) {
	js := &countingRunner{name: "js"}
	d := NewDispatcher(NewSimulated(), 2)
	d.Register(domain.JavaScript, js)

	res, err := d.Run(context.Background(), domain.Language{ID: "python"}, "print(1)")
	require.NoError(t, err)
	assert.Equal(t, "simulated", res.Runner)
	assert.Contains(t, res.Output, "Simulating python execution...")
	assert.Equal(t, int32(0), js.calls.Load(), "non-JavaScript language must not reach the JS runner")

	res, err = d.Run(context.Background(), jsLang, "ok")
	require.NoError(t, err)
	assert.Equal(t, "js", res.Runner)
	assert.Equal(t, int32(1), js.calls.Load())
}

func TestDispatcherIsLive(t *testing.T) {
	d := NewDispatcher(NewSimulated(), 1)
	d.Register(domain.JavaScript, NewJavaScript())

	assert.True(t, d.IsLive(domain.JavaScript))
	assert.False(t, d.IsLive("cpp"))
}

func TestDispatcherWrapsRunnerError(t *testing.T) {
	boom := errors.New("daemon unavailable")
	d := NewDispatcher(NewSimulated(), 1)
	d.Register("python", &countingRunner{name: "docker", err: boom})

	_, err := d.Run(context.Background(), domain.Language{ID: "python"}, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	slow := &countingRunner{name: "slow", hold: make(chan struct{})}
	d := NewDispatcher(NewSimulated(), 1)
	d.Register(domain.JavaScript, slow)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = d.Run(context.Background(), jsLang, "first")
	}()
	require.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Run(ctx, jsLang, "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), slow.calls.Load())

	// Simulated runs are not bound by the live slot.
	_, err = d.Run(context.Background(), domain.Language{ID: "java"}, "x")
	require.NoError(t, err)

	close(slow.hold)
	wg.Wait()
}
