package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

// Result holds the output of executing or simulating a snippet.
type Result struct {
	Output           string        `json:"output"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	ErrorDescription string        `json:"error_description,omitempty"`
	Failed           bool          `json:"failed"`
	Live             bool          `json:"live"`
	Runner           string        `json:"runner"`
	Duration         time.Duration `json:"-"`
}

// Runner executes code for one or more languages.
// Execution failures of the user's code are reported in the Result;
// the returned error is reserved for infrastructure failures.
type Runner interface {
	Name() string
	Run(ctx context.Context, lang domain.Language, code string) (Result, error)
}

// Dispatcher routes a language to its runner.
type Dispatcher struct {
	mu       sync.RWMutex
	runners  map[string]Runner
	fallback Runner
	sem      *semaphore.Weighted
}

// NewDispatcher creates a dispatcher that uses fallback for unregistered
// languages and allows at most maxConcurrent live runs at a time.
func NewDispatcher(fallback Runner, maxConcurrent int64) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Dispatcher{
		runners:  make(map[string]Runner),
		fallback: fallback,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// Register binds a language id to a runner, replacing any previous binding.
func (d *Dispatcher) Register(langID string, r Runner) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runners[langID] = r
}

// RunnerFor returns the runner that would handle langID.
func (d *Dispatcher) RunnerFor(langID string) Runner {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r, ok := d.runners[langID]; ok {
		return r
	}
	return d.fallback
}

// IsLive reports whether langID executes for real rather than being simulated.
func (d *Dispatcher) IsLive(langID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.runners[langID]
	return ok
}

// Run executes code with the runner registered for lang.
func (d *Dispatcher) Run(ctx context.Context, lang domain.Language, code string) (Result, error) {
	r := d.RunnerFor(lang.ID)
	if r == nil {
		return Result{}, fmt.Errorf("no runner for language %q", lang.ID)
	}

	if r != d.fallback {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return Result{}, fmt.Errorf("wait for run slot: %w", err)
		}
		defer d.sem.Release(1)
	}

	start := time.Now()
	res, err := r.Run(ctx, lang, code)
	if err != nil {
		return Result{}, fmt.Errorf("%s runner: %w", r.Name(), err)
	}
	res.Runner = r.Name()
	res.Duration = time.Since(start)

	slog.Debug("Code executed",
		"language", lang.ID,
		"runner", res.Runner,
		"live", res.Live,
		"failed", res.Failed,
		"duration", res.Duration,
	)
	return res, nil
}
