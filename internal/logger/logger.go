// Package logger wraps log/slog with the handler selection and field helpers
// used across the service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with domain helpers.
type Logger struct {
	*slog.Logger
}

// New builds a logger writing to stdout. Text output is used in dev, JSON
// everywhere else. level is one of debug, info, warn, error.
func New(env, level string) *Logger {
	return NewWithWriter(os.Stdout, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) *Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	var h slog.Handler
	if strings.EqualFold(env, "dev") || strings.EqualFold(env, "local") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel converts a LOG_LEVEL value to a slog level. Unknown values map
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithRequestID adds the request id to every record.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", id))}
}

// WithUserID adds the authenticated user to every record.
func (l *Logger) WithUserID(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Uint64("user_id", id))}
}

// WithError adds err to every record.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}
