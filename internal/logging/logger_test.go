package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/paisatrail/internal/config"
)

func TestNew_JSONHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "warn", Format: "JSON"})

	logger.Info("dropped")
	logger.Warn("trace failed", "victim", "V")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace failed", entry["msg"])
	assert.Equal(t, "V", entry["victim"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Contains(t, entry["time"], "Z")
}

func TestNew_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, config.LoggingConfig{}).Info("trace complete", "layer1", 2)

	out := buf.String()
	assert.Contains(t, out, "msg=\"trace complete\"")
	assert.Contains(t, out, "layer1=2")
	assert.Contains(t, out, "service=paisatrail")
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
