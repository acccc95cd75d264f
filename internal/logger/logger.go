// Package logger provides a thin wrapper around slog so every component logs
// to stderr with the same handler. stdout is left alone for MCP stdio framing.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process logger. Replace it with New before use when debug
// output is wanted.
var Logger = New(os.Stderr, false)

// New builds a text logger writing to w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup replaces the process logger.
func Setup(debug bool) {
	Logger = New(os.Stderr, debug)
	slog.SetDefault(Logger)
}

// For returns a child logger tagged with a component name.
func For(component string) *slog.Logger {
	return Logger.With("component", component)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
