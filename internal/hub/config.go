package hub

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the relay's runtime configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	LogLevel       string
	// RateLimit is the number of API requests allowed per IP per RateWindow.
	RateLimit  int
	RateWindow time.Duration
}

// LoadConfig reads RELAY_* variables, falling back to defaults with a
// warning on malformed values.
func LoadConfig() Config {
	limit := envInt("RELAY_RATE_LIMIT", 120)
	if limit <= 0 {
		slog.Warn("config: invalid rate limit, defaulting", "limit", limit)
		limit = 120
	}
	return Config{
		Addr:           envOr("RELAY_ADDR", ":8000"),
		AllowedOrigins: splitList(envOr("RELAY_ALLOWED_ORIGINS", "*")),
		LogLevel:       envOr("RELAY_LOG_LEVEL", "info"),
		RateLimit:      limit,
		RateWindow:     envDuration("RELAY_RATE_WINDOW_MS", 60_000),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		slog.Warn("config: invalid int, using default", "key", key, "value", v, "default", fallback)
	}
	return fallback
}

func envDuration(key string, defaultMillis int) time.Duration {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
		slog.Warn("config: invalid duration, using default", "key", key, "value", v, "default_ms", defaultMillis)
	}
	return time.Duration(defaultMillis) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
