package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		" info ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestNewStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(&buf, "mixopt", "v1", "info")

	log.Debug("hidden")
	log.Info("search done", "expanded", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "search done", rec["msg"])
	assert.Equal(t, "mixopt", rec["module"])
	assert.Equal(t, "v1", rec["version"])
	assert.EqualValues(t, 12, rec["expanded"])
	assert.NotContains(t, rec, "source")
}

func TestNewStructuredLoggerDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(&buf, "mixopt", "v1", "debug").Debug("visible")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Contains(t, rec, "source")
}
