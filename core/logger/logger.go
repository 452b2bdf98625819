package logger

import (
	"fmt"
	"strings"
)

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Level is a configured verbosity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel accepts debug, info, warn (or warning) and error. An empty
// string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Logf logs at the given level.
func Logf(l Logger, level Level, format string, args ...any) {
	switch level {
	case LevelDebug:
		l.Debugf(format, args...)
	case LevelWarn:
		l.Warnf(format, args...)
	case LevelError:
		l.Errorf(format, args...)
	default:
		l.Infof(format, args...)
	}
}
