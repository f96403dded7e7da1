package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"emittr/fourinarow/internal/game"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is read once at start-up and never changes afterwards.
type Config struct {
	Addr       string
	Game       game.Settings
	IdleWindow time.Duration

	RedisURL     string
	CacheTTL     time.Duration
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	// PORT first, as set by most hosting platforms.
	addr := GetEnv("ADDR", ":8080")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	settings := game.Settings{
		Rules: game.Rules{
			Rows:      GetEnvAsInt("BOARD_ROWS", game.DefaultRows),
			Columns:   GetEnvAsInt("BOARD_COLUMNS", game.DefaultColumns),
			RunLength: GetEnvAsInt("RUN_LENGTH", game.DefaultRunLength),
		},
		Depth:        GetEnvAsInt("SEARCH_DEPTH", game.DefaultDepth),
		Pruning:      GetEnvAsBool("SEARCH_PRUNING", true),
		ParallelRoot: GetEnvAsBool("SEARCH_PARALLEL", false),
		RandomTies:   GetEnvAsBool("SEARCH_RANDOM_TIES", false),
	}
	if err := settings.Rules.Validate(); err != nil {
		log.Warn().Err(err).Msg("using default board")
		settings.Rules = game.DefaultRules()
	}

	return Config{
		Addr:         addr,
		Game:         settings,
		IdleWindow:   GetEnvAsSeconds("IDLE_WINDOW", 30*time.Minute),
		RedisURL:     os.Getenv("REDIS_URL"),
		CacheTTL:     GetEnvAsSeconds("CACHE_TTL", 24*time.Hour),
		KafkaBrokers: GetEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:   GetEnv("KAFKA_TOPIC", "game-events"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		LogFormat:    GetEnv("LOG_FORMAT", "json"),
	}
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func GetEnvAsBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("default", fallback).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

// GetEnvAsSeconds reads a whole number of seconds.
func GetEnvAsSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warn().Str("key", key).Str("value", v).Dur("default", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return time.Duration(n) * time.Second
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
