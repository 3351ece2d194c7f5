// Package logger configures the tool's slog logger. By default everything is
// discarded; Init enables text output on stderr at the chosen level.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// L is the global logger instance. It discards all output until Init runs.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init configures logging. Call from main() before any log calls.
func Init(enabled bool, level slog.Level) {
	if !enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
