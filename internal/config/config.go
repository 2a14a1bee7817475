// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	FrontendURL       string
	DBPath            string
	LogLevel          slog.Level
	HistoryTTL        time.Duration
	SessionIdleTTL    time.Duration
	Gemini            GeminiConfig
	Run               RunConfig
	Sandbox           SandboxConfig
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// GeminiConfig configures the generative model backend.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether AI calls can be made.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != ""
}

// RunConfig bounds code execution.
type RunConfig struct {
	Timeout       time.Duration
	MaxConcurrent int
	MaxLines      int
	// Interpreters enables the in-process TypeScript and Go runners.
	Interpreters bool
}

// SandboxConfig controls container execution of non-JavaScript languages.
type SandboxConfig struct {
	Enabled bool
	Runtime string // Container runtime: "" = default (runc), "runsc" = gVisor
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/aetherdebug.db"),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		HistoryTTL:     getEnvDuration("HISTORY_TTL", 7*24*time.Hour),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
		Gemini: GeminiConfig{
			APIKey:  apiKey,
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", ""),
		},
		Run: RunConfig{
			Timeout:       getEnvDuration("RUN_TIMEOUT", 5*time.Second),
			MaxConcurrent: getEnvInt("MAX_CONCURRENT_RUNS", 4),
			MaxLines:      getEnvInt("MAX_OUTPUT_LINES", 1000),
			Interpreters:  getEnvBool("LIVE_INTERPRETERS", false),
		},
		Sandbox: SandboxConfig{
			Enabled: getEnvBool("SANDBOX_CONTAINERS", false),
			Runtime: getEnv("CONTAINER_RUNTIME", ""),
		},
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Run.Timeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT must be > 0")
	}
	if c.Run.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_RUNS must be > 0")
	}
	if c.Run.MaxLines <= 0 {
		return fmt.Errorf("MAX_OUTPUT_LINES must be > 0")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.HistoryTTL < 0 {
		return fmt.Errorf("HISTORY_TTL cannot be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the configured frontend.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:" + c.Port}
	}
	origins := strings.Split(c.FrontendURL, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}
