package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to stderr. Format is "json" or "text".
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps "debug", "warn" and "error" to their slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
