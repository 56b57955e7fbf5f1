// internal/config/config.go
//
// Process configuration for the wordle-game server.
// Values come from the environment (optionally seeded from a `.env` file via
// godotenv). Every setting has a default so the server runs with no env at all.
//
// Environment variables:
//   PORT               HTTP listen port (default 3001)
//   LOG_LEVEL          zerolog level name (default info)
//   LOG_FORMAT         "json" or "console" (default json)
//   CLIENT_ORIGIN      allowed CORS origin (default http://localhost:5173)
//   WORDS_DIR          directory holding <n>-letter-words.json (default: embedded lists)
//   DB_PATH            SQLite history file; empty disables history (default ./data/wordle.db)
//   FIRST_ROUND_DELAY  delay between game_start and the first rounds (default 3s)
//   NEXT_ROUND_DELAY   delay before a player's next round (default 1s)
//   FINISHED_ROOM_TTL  how long a finished room lingers before it is reaped (default 2m)
//   IDLE_ROOM_TTL      how long a waiting room may sit idle (default 30m)
//   SOLO_GAME_TTL      single-player game lifetime (default 24h)

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every tunable of the server.
type Config struct {
	Port         string
	LogLevel     string
	LogFormat    string
	ClientOrigin string
	WordsDir     string
	DBPath       string

	FirstRoundDelay time.Duration
	NextRoundDelay  time.Duration
	FinishedRoomTTL time.Duration
	IdleRoomTTL     time.Duration
	SoloGameTTL     time.Duration
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Port:            "3001",
		LogLevel:        "info",
		LogFormat:       "json",
		ClientOrigin:    "http://localhost:5173",
		DBPath:          "./data/wordle.db",
		FirstRoundDelay: 3 * time.Second,
		NextRoundDelay:  time.Second,
		FinishedRoomTTL: 2 * time.Minute,
		IdleRoomTTL:     30 * time.Minute,
		SoloGameTTL:     24 * time.Hour,
	}
}

// Load reads `.env` (if present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching `.env`.
func FromEnv() Config {
	d := Default()
	return Config{
		Port:         getEnv("PORT", d.Port),
		LogLevel:     getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:    getEnv("LOG_FORMAT", d.LogFormat),
		ClientOrigin: getEnv("CLIENT_ORIGIN", d.ClientOrigin),
		WordsDir:     os.Getenv("WORDS_DIR"),
		DBPath:       getEnvAllowEmpty("DB_PATH", d.DBPath),

		FirstRoundDelay: envDuration("FIRST_ROUND_DELAY", d.FirstRoundDelay),
		NextRoundDelay:  envDuration("NEXT_ROUND_DELAY", d.NextRoundDelay),
		FinishedRoomTTL: envDuration("FINISHED_ROOM_TTL", d.FinishedRoomTTL),
		IdleRoomTTL:     envDuration("IDLE_ROOM_TTL", d.IdleRoomTTL),
		SoloGameTTL:     envDuration("SOLO_GAME_TTL", d.SoloGameTTL),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvAllowEmpty distinguishes "unset" (def) from "set to empty" ("").
func getEnvAllowEmpty(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

// envDuration parses a Go duration ("1500ms", "3s") or a plain number of seconds.
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
	return def
}
