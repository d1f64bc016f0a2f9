package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "KAFKA_BROKERS", "SOLVER", "SETTINGS_SECRET", "SHUTDOWN_TIMEOUT", "ENGINE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.Events.KafkaBrokers)
	assert.Equal(t, "engine", cfg.Engine.Solver)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SOLVER", "gemini")
	t.Setenv("SETTINGS_SECRET", "0123456789abcdef")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "gemini", cfg.Engine.Solver)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "solver", key: "SOLVER", value: "oracle"},
		{name: "secret length", key: "SETTINGS_SECRET", value: "short"},
		{name: "shutdown timeout", key: "SHUTDOWN_TIMEOUT", value: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
