package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "SANDBOX_CONTAINERS"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "8080")
	t.Setenv("RUN_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Run.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.Gemini.Enabled())
	assert.False(t, cfg.Sandbox.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")
	t.Setenv("RUN_TIMEOUT", "3")
	t.Setenv("MAX_CONCURRENT_RUNS", "8")
	t.Setenv("SANDBOX_CONTAINERS", "yes")
	t.Setenv("CONTAINER_RUNTIME", "runsc")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "fallback-key", cfg.Gemini.APIKey)
	assert.True(t, cfg.Gemini.Enabled())
	assert.Equal(t, 3*time.Second, cfg.Run.Timeout)
	assert.Equal(t, 8, cfg.Run.MaxConcurrent)
	assert.True(t, cfg.Sandbox.Enabled)
	assert.Equal(t, "runsc", cfg.Sandbox.Runtime)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero timeout", func(c *Config) { c.Run.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Run.MaxConcurrent = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimitRequests = 0 }},
		{"negative history ttl", func(c *Config) { c.HistoryTTL = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())

	cfg.FrontendURL = "https://debug.example.com"
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://debug.example.com"}, cfg.AllowedOrigins())
}

func validConfig() *Config {
	return &Config{
		Port:              "8080",
		DBPath:            "x.db",
		Run:               RunConfig{Timeout: time.Second, MaxConcurrent: 1, MaxLines: 10},
		RateLimitRequests: 1,
		RateLimitWindow:   time.Second,
	}
}
