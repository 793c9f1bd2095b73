package config

import (
	"io"
	"log/slog"
)

// NewLogger creates a text logger at the configured level. An unknown level
// falls back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
