package slogging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLogLevel(tt.input), "input %q", tt.input)
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "plain message", SanitizeLogMessage("plain message"))
	assert.Equal(t, "line1\\nline2", SanitizeLogMessage("line1\nline2"))
	assert.Equal(t, "cr\\rlf\\n", SanitizeLogMessage("cr\rlf\n"))
}

func TestNewLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(Config{
		Level:            LogLevelDebug,
		IsDev:            true,
		LogDir:           dir,
		AlsoLogToConsole: false,
	})
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Info("hello %s", "world")
	logger.Debug("detail %d", 42)

	data, err := os.ReadFile(filepath.Join(dir, "flowboard.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
	assert.Contains(t, string(data), "detail 42")
}

func TestLoggerLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(Config{
		Level:            LogLevelWarn,
		IsDev:            true,
		LogDir:           dir,
		AlsoLogToConsole: false,
	})
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("warning shown")
	logger.Error("error shown")

	data, err := os.ReadFile(filepath.Join(dir, "flowboard.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
	assert.Contains(t, string(data), "warning shown")
	assert.Contains(t, string(data), "error shown")
}
