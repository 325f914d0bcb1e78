// Package logging builds the slog loggers used by the CLI and the relay.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the logger's service tag, level and output format.
type Config struct {
	ServiceName string
	Level       string
	// Format is "json" or "text". Text goes to stderr so it stays out of
	// piped CLI output.
	Format string
	// Output overrides the destination; nil picks stdout for json and
	// stderr for text.
	Output io.Writer
}

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a logger tagged with the service name.
func NewLogger(cfg Config) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		handler = slog.NewTextHandler(out, opts)
	default:
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler).With(slog.String("service", cfg.ServiceName))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
