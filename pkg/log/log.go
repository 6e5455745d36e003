// Package log configures the process-wide slog logger for the propflow
// binaries.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the propflow text logger on slog's default at the given
// level. Unknown levels fall back to info.
func Setup(logLevel string) {
	slog.SetDefault(New(os.Stderr, logLevel))
}

// New builds a propflow logger writing to w. Every line carries the app
// attribute so co-located services can be told apart in shared log streams.
func New(w io.Writer, logLevel string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	return slog.New(handler).With("app", "propflow")
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}

func parseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
