package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL     string
	CatalogPath  string
	DialoguePath string

	MinStages    int
	MaxStages    int
	Opponents    int
	SessionTTL   time.Duration
	RankingLimit int
	// RankingQueue hands finished runs to cmd/worker instead of ranking
	// them inside the API.
	RankingQueue bool
	WorkerID     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		DialoguePath: os.Getenv("DIALOGUE_PATH"),
		WorkerID:     os.Getenv("WORKER_ID"),
	}

	var err error
	if cfg.MinStages, err = getEnvInt("MIN_STAGES", 5); err != nil {
		return nil, err
	}
	if cfg.MaxStages, err = getEnvInt("MAX_STAGES", 7); err != nil {
		return nil, err
	}
	if cfg.Opponents, err = getEnvInt("OPPONENTS", 2); err != nil {
		return nil, err
	}
	if cfg.RankingLimit, err = getEnvInt("RANKING_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.RankingQueue, err = getEnvBool("RANKING_QUEUE", false); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "2h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that the game packages would otherwise clamp
// silently.
func (c *Config) Validate() error {
	if c.MinStages < 4 || c.MaxStages > 7 || c.MinStages > c.MaxStages {
		return fmt.Errorf("stage range %d-%d must sit within 4-7", c.MinStages, c.MaxStages)
	}
	if c.Opponents < 1 || c.Opponents > 2 {
		return fmt.Errorf("OPPONENTS must be 1 or 2, got %d", c.Opponents)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RankingLimit < 1 {
		return fmt.Errorf("RANKING_LIMIT must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
