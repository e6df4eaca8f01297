package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"", LevelInfo},
		{"info", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseLevel("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestF(t *testing.T) {
	t.Parallel()

	field := F("plugin", "dataview")
	assert.Equal(t, "plugin", field.Key)
	assert.Equal(t, "dataview", field.Value)
}

func TestErr(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	field := Err(cause)
	assert.Equal(t, "error", field.Key)
	assert.Equal(t, cause, field.Value)
}

func TestDiscardLogger(t *testing.T) {
	t.Parallel()

	logger := DiscardLogger()
	logger.Info(context.Background(), "dropped", F("plugin", "dataview"))
	assert.Equal(t, logger, logger.With(F("k", "v")))
	assert.Equal(t, LevelError, logger.Level())
}

func TestLoggerOrDiscard(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DiscardLogger(), LoggerOrDiscard(nil))

	inner := DiscardLogger().With(F("vault", "/notes"))
	assert.Equal(t, inner, LoggerOrDiscard(inner))
}
