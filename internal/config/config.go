// Package config loads the bot configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// BotToken is the Telegram bot API token. Required.
	BotToken string

	// DBPath is the SQLite database file path.
	DBPath string

	// IncomeReminderAt and ExpenseReminderAt are daily reminder times in
	// HH:MM, interpreted in Timezone.
	IncomeReminderAt  string
	ExpenseReminderAt string

	// Timezone is the IANA name used for reminder scheduling.
	Timezone string

	// LinkTTL is how long a wallet-linking code stays valid.
	LinkTTL time.Duration

	// MetricsAddr is the listen address for the metrics/health endpoint.
	// Empty disables the listener.
	MetricsAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		DBPath:            getEnv("DB_PATH", "./data/wallet.db"),
		IncomeReminderAt:  getEnv("DAILY_INCOME_TIME", "09:00"),
		ExpenseReminderAt: getEnv("DAILY_EXPENSE_TIME", "20:00"),
		Timezone:          getEnv("TIMEZONE", "Europe/Moscow"),
		LinkTTL:           10 * time.Minute,
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	if raw := os.Getenv("LINK_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LINK_TTL %q: %w", raw, err)
		}
		cfg.LinkTTL = ttl
	}

	if _, _, err := ParseClock(cfg.IncomeReminderAt); err != nil {
		return nil, fmt.Errorf("invalid DAILY_INCOME_TIME: %w", err)
	}
	if _, _, err := ParseClock(cfg.ExpenseReminderAt); err != nil {
		return nil, fmt.Errorf("invalid DAILY_EXPENSE_TIME: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// ParseClock parses an HH:MM string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
