// Package logs holds the structured logger and the per-install event log.
package logs

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// DebugEnv turns on debug logging for the shims, which take no flags of
// their own.
const DebugEnv = "DEEPCODE_DEBUG"

// NewLogger returns a text logger writing to w at info level, or debug level
// when verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// DebugFromEnv reports whether DEEPCODE_DEBUG is set to a true value.
func DebugFromEnv() bool {
	v, err := strconv.ParseBool(os.Getenv(DebugEnv))
	return err == nil && v
}
