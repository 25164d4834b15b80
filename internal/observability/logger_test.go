package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvlink/tvlink/internal/config"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("hello", slog.String("key", "value"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNewLoggerWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("suppressed")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	WithComponent(logger, "session").Info("ready")

	assert.Contains(t, buf.String(), "component=session")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	ctx := ContextWithLogger(context.Background(), logger)
	got := LoggerFromContext(ctx)
	got.Info("from context")

	assert.True(t, strings.Contains(buf.String(), "from context"))

	// Missing logger falls back to the default
	assert.NotNil(t, LoggerFromContext(context.Background()))
}
