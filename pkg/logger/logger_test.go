package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWithWriter(&buf, "info", "json")
		l.Debug("hidden")
		l.Info("estimate complete", "marketplace", "amazon")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "estimate complete", entry["msg"])
		assert.Equal(t, "amazon", entry["marketplace"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWithWriter(&buf, "debug", "text")
		l.Debug("fetching product page", "url", "https://www.amazon.in/dp/B0CHX1W1XY")
		assert.Contains(t, buf.String(), "msg=\"fetching product page\"")
	})
}
