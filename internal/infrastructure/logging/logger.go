// Package logging provides structured logging utilities.
//
// The default text format is meant for terminals:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
//
// The json format emits one slog JSON object per line for log shippers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
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

// NewLogger creates a structured logger based on config, writing to stderr
// so command output on stdout stays clean.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewConsoleHandler(w, opts)
	}
	return slog.New(handler)
}

// WithSystem scopes logger to a system prefix (e.g., "sync", "process", "api")
func WithSystem(logger *slog.Logger, system string) *slog.Logger {
	return logger.With(SystemKey, system)
}

// Discard returns a logger that drops everything. Useful as a default for
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
