// Package config loads application configuration from environment
// variables. Required values are enforced at startup; optional knobs
// fall back to documented defaults.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBMaxOpen     int           // connection pool: max open connections
	DBMaxIdle     int           // connection pool: max idle connections
	DBConnMaxLife time.Duration // connection pool: max connection lifetime
	JWTSecret     string        // secret used to verify access tokens
	SweepInterval time.Duration // orphan reclaimer cadence
	OrphanGrace   time.Duration // age before an unlinked PENDING seat is reclaimed
}

// Load reads configuration from the environment. Missing required
// variables cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		DBMaxOpen:     optInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:     optInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLife: optDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:     must("JWT_SECRET"),
		SweepInterval: optDur("ORPHAN_SWEEP_INTERVAL", time.Minute),
		OrphanGrace:   optDur("ORPHAN_GRACE", 10*time.Minute),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// optInt reads an optional positive integer with a default.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: ignoring invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

// optDur reads an optional duration ("90s", "2m") with a default.
func optDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: ignoring invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
