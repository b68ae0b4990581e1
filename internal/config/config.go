// Package config reads process settings from the environment, optionally
// preloaded from .env files.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Port           string
	DatabaseURL    string
	Migrate        bool
	MigrationsDir  string
	RedisURL       string
	SeedFile       string
	LogLevel       string
	LogFormat      string
	RateRPS        float64
	RateBurst      int
	TraceStdout    bool
	DefaultMaxHops int
	MaxHopsLimit   int
}

// Load reads .env files (missing ones are ignored; real env wins) and then
// the environment.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:           str("PORT", "8080"),
		DatabaseURL:    str("DATABASE_URL", ""),
		Migrate:        boolean("DB_MIGRATE", true),
		MigrationsDir:  str("MIGRATIONS_DIR", "db/migrations"),
		RedisURL:       str("REDIS_URL", ""),
		SeedFile:       str("SEED_FILE", ""),
		LogLevel:       str("LOG_LEVEL", "info"),
		LogFormat:      str("LOG_FORMAT", "console"),
		RateRPS:        float("RATE_RPS", 0),
		RateBurst:      integer("RATE_BURST", 20),
		TraceStdout:    boolean("TRACE_STDOUT", false),
		DefaultMaxHops: integer("DEFAULT_MAX_HOPS", 10),
		MaxHopsLimit:   integer("MAX_HOPS_LIMIT", 64),
	}
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func float(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return def
}

func boolean(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}
