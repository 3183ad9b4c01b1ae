package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"DEBUG":   LogLevelDebug,
		" info ":  LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"":        LogLevelInfo,
		"trace":   LogLevelInfo,
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeLogLevel(raw), raw)
	}
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("pretty"))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LoggingConfig{Level: LogLevelWarn}.SlogLevel(false))
	assert.Equal(t, slog.LevelDebug, LoggingConfig{Level: LogLevelWarn}.SlogLevel(true))
	assert.Equal(t, slog.LevelInfo, LoggingConfig{}.SlogLevel(false))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelInfo, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "module", "Kit")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "Kit", line["module"])
}
