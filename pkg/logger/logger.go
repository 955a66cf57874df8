// Package logger provides centralized slog.Logger construction. Every
// long-lived component receives its logger from here so that level and
// format are decided once, at the edge.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a *slog.Logger writing to w with the given level and format.
// Level: "debug", "info", "warn", "error" (default: "info").
// Format: "json" or "text" (default: "text").
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Default creates a text logger at info level writing to stderr.
func Default() *slog.Logger {
	return New(os.Stderr, "info", "text")
}

// Nop returns a logger that discards everything. Intended for tests and
// for components that run before logging is configured.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level string to slog.Level.
// Recognized values: "debug", "warn", "error". Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
