package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/goals")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CONFIDENCE_MOMENT_DELTA", "35")

	cfg := Load()
	assert.Equal(t, "postgres://localhost/goals", cfg.DatabaseURL)
	assert.Equal(t, 35, cfg.MomentDelta)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIDENCE_MOMENT_DELTA", "lots")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, 20, cfg.MomentDelta)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
