package ports

import (
	"context"
	"fmt"
	"strings"
)

// Level is the severity of a log entry.
type Level int

const (
	// LevelDebug is for install phase tracing and cache decisions.
	LevelDebug Level = iota
	// LevelInfo is for completed operations.
	LevelInfo
	// LevelWarn is for best-effort steps that failed without failing the operation.
	LevelWarn
	// LevelError is for failed operations.
	LevelError
)

// String returns the upper-case label of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config or flag value such as "debug" or "WARN" into a Level.
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
		return LevelInfo, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
	}
}

// Field is a structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err creates a Field holding an error under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger is the structured logging port used by the domain packages.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a Logger that adds fields to every entry.
	With(fields ...Field) Logger

	Level() Level
	SetLevel(level Level)
}

// DiscardLogger returns a Logger that drops every entry. Domain services
// use it until a logger is wired.
func DiscardLogger() Logger {
	return discardLogger{}
}

// LoggerOrDiscard returns logger, or DiscardLogger when logger is nil.
func LoggerOrDiscard(logger Logger) Logger {
	if logger == nil {
		return DiscardLogger()
	}
	return logger
}

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...Field) {}
func (discardLogger) Info(context.Context, string, ...Field) {}
func (discardLogger) Warn(context.Context, string, ...Field) {}
func (discardLogger) Error(context.Context, string, ...Field) {}
func (d discardLogger) With(...Field) Logger { return d }
func (discardLogger) Level() Level { return LevelError }
func (discardLogger) SetLevel(Level) {}
