// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/srgjo27/hotel_reservation/internal/platform/database"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPAddr         string
	DataDir          string
	StorageDriver    string
	DB               database.Config
	RedisAddr        string
	RedisDB          int
	CacheTTL         time.Duration
	RabbitMQURL      string
	EventQueue       string
	LogDir           string
	LogLevel         string
	RefundWindowDays int
}

// Load reads envFile when it exists and then the process environment.
// A variable set in the environment wins over the file unless it is empty;
// empty counts as unset everywhere.
func Load(envFile string) (Config, bool, error) {
	fileVars, err := godotenv.Read(envFile)
	loadedFile := err == nil
	env := source(fileVars)

	cfg := Config{
		HTTPAddr:      env.get("HTTP_ADDR", ":8080"),
		DataDir:       env.get("DATA_DIR", "data"),
		StorageDriver: strings.ToLower(env.get("STORAGE_DRIVER", StorageFile)),
		DB: database.Config{
			Host:     env.get("DB_HOST", "localhost"),
			Port:     env.get("DB_PORT", "5432"),
			User:     env.get("DB_USER", "postgres"),
			Password: env.get("DB_PASSWORD", ""),
			DBName:   env.get("DB_NAME", "hotel_reservation"),
		},
		RedisAddr:   env.get("REDIS_ADDR", ""),
		RabbitMQURL: env.get("RABBITMQ_URL", ""),
		EventQueue:  env.get("EVENT_QUEUE", "hotel.reservations"),
		LogDir:      env.get("LOG_DIR", "logs"),
		LogLevel:    env.get("LOG_LEVEL", "info"),
	}

	if cfg.RedisDB, err = env.atoi("REDIS_DB", "0"); err != nil {
		return cfg, loadedFile, err
	}
	if cfg.RefundWindowDays, err = env.atoi("REFUND_WINDOW_DAYS", "2"); err != nil {
		return cfg, loadedFile, err
	}
	if cfg.CacheTTL, err = time.ParseDuration(env.get("CACHE_TTL", "30s")); err != nil {
		return cfg, loadedFile, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	switch cfg.StorageDriver {
	case StorageFile, StoragePostgres:
	default:
		return cfg, loadedFile, fmt.Errorf("invalid STORAGE_DRIVER %q: want %q or %q", cfg.StorageDriver, StorageFile, StoragePostgres)
	}
	if cfg.RefundWindowDays < 0 {
		return cfg, loadedFile, fmt.Errorf("invalid REFUND_WINDOW_DAYS %d: must not be negative", cfg.RefundWindowDays)
	}

	return cfg, loadedFile, nil
}

// source holds the values read from the .env file.
type source map[string]string

func (s source) get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s[key]; v != "" {
		return v
	}
	return def
}

func (s source) atoi(key, def string) (int, error) {
	v := s.get(key, def)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}
