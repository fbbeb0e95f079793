package logger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(Config{Level: tt.level})
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf zaptest.Buffer
	l := newLogger(Config{Level: "info"}, &buf)

	l.Debug("hidden")
	l.Info("recipe added", zap.String("id", "r1"))
	require.NoError(t, l.Sync())

	lines := buf.Lines()
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "recipe added", entry["msg"])
	assert.Equal(t, "r1", entry["id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestConsoleFormat(t *testing.T) {
	var buf zaptest.Buffer
	l := newLogger(Config{Level: "warn", Format: "console"}, &buf)

	l.Info("hidden")
	l.Warn("slow response", zap.Int("seconds", 3))

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "WARN")
	assert.Contains(t, lines[0], "slow response")
	assert.Contains(t, lines[0], `{"seconds": 3}`)
	assert.False(t, json.Valid([]byte(lines[0])))
}
