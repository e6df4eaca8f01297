// Package logging provides the ConsoleLogger behind ports.Logger, rendering
// text or JSON lines for the CLI.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// Format selects how ConsoleLogger renders entries.
type Format string

const (
	// FormatText renders "15:04:05 [INFO] msg key=value".
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat validates a --log-format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q (valid: text, json)", s)
	}
}

// ConsoleLogger writes structured entries to a writer, stderr by default.
// Loggers derived through With share the writer lock of their parent.
type ConsoleLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     ports.Level
	format    Format
	timestamp bool
	fields    []ports.Field
	now       func() time.Time
}

// Option configures a ConsoleLogger.
type Option func(*ConsoleLogger)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(l *ConsoleLogger) { l.out = w }
}

// WithLevel sets the minimum level (default: info).
func WithLevel(level ports.Level) Option {
	return func(l *ConsoleLogger) { l.level = level }
}

// WithFormat sets the output format (default: text).
func WithFormat(f Format) Option {
	return func(l *ConsoleLogger) { l.format = f }
}

// WithTimestamp toggles the time prefix or "time" key.
func WithTimestamp(enabled bool) Option {
	return func(l *ConsoleLogger) { l.timestamp = enabled }
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(opts ...Option) *ConsoleLogger {
	l := &ConsoleLogger{
		mu:        &sync.Mutex{},
		out:       os.Stderr,
		level:     ports.LevelInfo,
		format:    FormatText,
		timestamp: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a child logger carrying additional fields.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	child := *l
	child.fields = append(append([]ports.Field(nil), l.fields...), fields...)
	return &child
}

// Level returns the minimum level.
func (l *ConsoleLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the minimum level.
func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	all := append(append([]ports.Field(nil), l.fields...), fields...)

	var line string
	if l.format == FormatJSON {
		line = l.renderJSON(level, msg, all)
	} else {
		line = l.renderText(level, msg, all)
	}
	if line == "" {
		return
	}
	_, _ = fmt.Fprintln(l.out, line)
}

func (l *ConsoleLogger) renderJSON(level ports.Level, msg string, fields []ports.Field) string {
	entry := make(map[string]any, len(fields)+3)
	if l.timestamp {
		entry["time"] = l.now().UTC().Format(time.RFC3339)
	}
	entry["level"] = level.String()
	entry["msg"] = msg
	for _, f := range fields {
		entry[f.Key] = jsonValue(f.Value)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(data)
}

func (l *ConsoleLogger) renderText(level ports.Level, msg string, fields []ports.Field) string {
	var b strings.Builder
	if l.timestamp {
		b.WriteString(l.now().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] %s", level.String(), msg)
	for _, f := range fields {
		value := fmt.Sprintf("%v", f.Value)
		if strings.ContainsAny(value, " \t\"") {
			value = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(&b, " %s=%s", f.Key, value)
	}
	return b.String()
}

// jsonValue renders errors as their message; encoding/json would emit {}.
func jsonValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// Ensure ConsoleLogger implements Logger.
var _ ports.Logger = (*ConsoleLogger)(nil)
