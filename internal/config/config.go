// Package config reads process configuration from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/database"
)

type Config struct {
	Port            string
	DB              database.Config
	HoldDuration    time.Duration
	ReservationDays int

	LogLevel  string
	LogFormat string

	NATSURL             string
	TelegramToken       string
	TelegramAdminChatID int64

	CORSOrigins []string
}

// Load reads the environment, falling back to local-development defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port: get("PORT", "8080"),
		DB: database.Config{
			URL:            get("DATABASE_URL", ""),
			Host:           get("DB_HOST", "localhost"),
			Port:           get("DB_PORT", "5432"),
			User:           get("DB_USER", "postgres"),
			Password:       get("DB_PASSWORD", "postgres"),
			DBName:         get("DB_NAME", "rifas"),
			SSLMode:        get("DB_SSLMODE", "disable"),
			ConnectRetries: 5,
			RetryDelay:     2 * time.Second,
		},
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     get("LOG_FORMAT", "json"),
		NATSURL:       get("NATS_URL", ""),
		TelegramToken: get("TELEGRAM_TOKEN", ""),
	}

	minutes, err := positiveInt(get("HOLD_MINUTES", "15"))
	if err != nil {
		return Config{}, fmt.Errorf("HOLD_MINUTES: %w", err)
	}
	cfg.HoldDuration = time.Duration(minutes) * time.Minute

	if cfg.ReservationDays, err = positiveInt(get("RESERVATION_DAYS", "3")); err != nil {
		return Config{}, fmt.Errorf("RESERVATION_DAYS: %w", err)
	}

	if v := get("TELEGRAM_ADMIN_CHAT_ID", ""); v != "" {
		if cfg.TelegramAdminChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
