// Package config loads server configuration from an optional .env file and
// the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the process needs to start.
type Config struct {
	ListenAddr string
	OpsAddr    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	LogFile  string
	LogLevel string

	DayPhase     time.Duration
	EveningPhase time.Duration

	MonsterDataPath string
}

// Load reads .env when present, then the environment, applying defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":5000"),
		OpsAddr:         getEnv("OPS_ADDR", ":8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		LogFile:         getEnv("LOG_FILE", "game-server.log"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DayPhase:        getEnvDuration("DAY_PHASE", 3*time.Minute),
		EveningPhase:    getEnvDuration("EVENING_PHASE", time.Minute),
		MonsterDataPath: getEnv("MONSTER_DATA_PATH", "assets/monster_info.json"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
