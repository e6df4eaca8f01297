package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

func TestConsoleLogger_ImplementsInterface(t *testing.T) {
	var console ports.Logger = NewConsoleLogger()
	if ports.LoggerOrDiscard(console) != console {
		t.Error("a wired console logger should be kept")
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON} {
		got, err := ParseFormat(input)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", input, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithTimestamp(false))

	logger.Info(context.Background(), "plugin installed", ports.F("plugin", "dataview"), ports.F("path", "/my vault"))

	got := strings.TrimSpace(buf.String())
	want := `[INFO] plugin installed plugin=dataview path="/my vault"`
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleLogger_TextTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf))
	logger.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local) }

	logger.Warn(context.Background(), "stale cache")

	if !strings.HasPrefix(buf.String(), "09:30:15 [WARN] stale cache") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithFormat(FormatJSON),
		WithTimestamp(false),
	)

	logger.Error(context.Background(), "install failed", ports.Err(errors.New("404")), ports.F("plugin", "cmdr"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["msg"] != "install failed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["error"] != "404" {
		t.Errorf("error = %v, want 404", entry["error"])
	}
	if entry["plugin"] != "cmdr" {
		t.Errorf("plugin = %v, want cmdr", entry["plugin"])
	}
	if _, ok := entry["time"]; ok {
		t.Error("time should be omitted when timestamps are disabled")
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithLevel(ports.LevelWarn), WithTimestamp(false))
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	if buf.Len() > 0 {
		t.Errorf("Debug and Info should be filtered, got %q", buf.String())
	}

	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")
	if !strings.Contains(buf.String(), "warn message") || !strings.Contains(buf.String(), "error message") {
		t.Errorf("Warn and Error should pass, got %q", buf.String())
	}

	buf.Reset()
	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Debug should pass after SetLevel, got %q", buf.String())
	}
}

func TestConsoleLogger_With_DoesNotModifyParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewConsoleLogger(WithOutput(&buf), WithTimestamp(false))
	child := parent.With(ports.F("vault", "notes"))
	ctx := context.Background()

	child.Info(ctx, "child")
	parent.Info(ctx, "parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "vault=notes") {
		t.Errorf("child line should carry the field, got %q", lines[0])
	}
	if strings.Contains(lines[1], "vault=notes") {
		t.Errorf("parent line should not carry the child field, got %q", lines[1])
	}
}
