package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "TRACE_MIN_AMOUNT", "TRACE_HIGH_WITHDRAWAL", "GRAPH_URI", "SERVER_READ_TIMEOUT", "SERVER_MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(32<<20), cfg.HTTP.MaxUploadBytes)
	assert.True(t, cfg.Trace.MinAmount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, cfg.Trace.HighWithdrawal.Equal(decimal.NewFromInt(100000)))
	assert.False(t, cfg.Graph.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TRACE_MIN_AMOUNT", "25,000")
	t.Setenv("TRACE_WORKERS", "8")
	t.Setenv("GRAPH_URI", "bolt://localhost:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.True(t, cfg.Trace.MinAmount.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, 8, cfg.Trace.Workers)
	assert.True(t, cfg.Graph.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":           "70000",
		"SERVER_READ_TIMEOUT":   "soon",
		"TRACE_HIGH_WITHDRAWAL": "lots",
		"TRACE_MIN_AMOUNT":      "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RejectsZeroThresholds(t *testing.T) {
	for _, key := range []string{"TRACE_MIN_AMOUNT", "TRACE_HIGH_WITHDRAWAL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key+" must be positive")
		})
	}
}
