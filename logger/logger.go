// Package logger builds the application slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Init returns a logger writing to stderr and installs it as the slog
// default. The dev environment gets colored human readable output, every
// other environment gets JSON.
func Init(level slog.Level, environment string) *slog.Logger {
	logger := New(os.Stderr, level, environment)
	slog.SetDefault(logger)

	return logger
}

// New is Init without touching the slog default.
func New(w io.Writer, level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	if environment == "dev" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is treated as info.
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

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or a discard logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}

	return l
}

// Redact shortens a credential so it can be correlated in logs without
// being usable. Values of eight characters or less are fully masked.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= 8 {
		return "****"
	}

	return secret[:4] + "****"
}
