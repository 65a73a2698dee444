// Package logging configures slog: JSON to stdout, plus ERROR records
// persisted to the system_logs table once the database is available.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONHandler writes JSON records at level and above to w.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup installs the stdout JSON logger and returns its handler so it can be
// fanned out later. Development environments log at DEBUG.
func Setup(appEnv string) slog.Handler {
	level := slog.LevelInfo
	if strings.EqualFold(appEnv, "development") {
		level = slog.LevelDebug
	}
	handler := NewJSONHandler(os.Stdout, level)
	slog.SetDefault(slog.New(handler))
	return handler
}
