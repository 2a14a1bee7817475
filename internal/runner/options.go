package runner

import (
	"log/slog"
	"time"
)

// Option configures a live runner.
type Option func(*config)

type config struct {
	timeout      time.Duration
	maxLines     int
	maxOutput    int
	maxCallStack int
	logger       *slog.Logger
}

func defaultConfig() config {
	return config{
		timeout:      5 * time.Second,
		maxLines:     1000,
		maxOutput:    64 * 1024,
		maxCallStack: 10000,
		logger:       slog.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTimeout sets the maximum execution time of a single run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxLines caps the number of captured console lines.
func WithMaxLines(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLines = n
		}
	}
}

// WithMaxOutput caps captured output bytes.
func WithMaxOutput(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxOutput = n
		}
	}
}

// WithMaxCallStack limits JavaScript recursion depth.
func WithMaxCallStack(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxCallStack = n
		}
	}
}

// WithLogger sets the logger that receives forwarded console output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
