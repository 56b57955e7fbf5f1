package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DB_PATH", "FIRST_ROUND_DELAY", "NEXT_ROUND_DELAY"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.FirstRoundDelay)
	assert.Equal(t, time.Second, cfg.NextRoundDelay)
	assert.Equal(t, 24*time.Hour, cfg.SoloGameTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "port", key: "PORT", value: "8080",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, "8080", cfg.Port) },
		},
		{
			name: "go duration", key: "NEXT_ROUND_DELAY", value: "250ms",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, 250*time.Millisecond, cfg.NextRoundDelay) },
		},
		{
			name: "plain seconds", key: "FIRST_ROUND_DELAY", value: "5",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, 5*time.Second, cfg.FirstRoundDelay) },
		},
		{
			name: "invalid duration falls back", key: "IDLE_ROOM_TTL", value: "soon",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, 30*time.Minute, cfg.IdleRoomTTL) },
		},
		{
			name: "empty db path disables history", key: "DB_PATH", value: "",
			check: func(t *testing.T, cfg Config) { assert.Empty(t, cfg.DBPath) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			tt.check(t, FromEnv())
		})
	}
}
