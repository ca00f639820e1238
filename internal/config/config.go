// Package config loads runtime settings from the environment and the
// sources YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Ledger settings
	DatabaseDSN    string // Postgres when set, JSON file otherwise
	LedgerFilePath string

	// Source settings
	SourcesConfigPath string
	ListingTimeout    time.Duration
	ArticleTimeout    time.Duration

	// Scheduling policy
	WindowStartHour int
	WindowEndHour   int
	PublishPerCycle int
	IngestLimit     int
	PauseMin        time.Duration
	PauseMax        time.Duration
	EmptyBackoff    time.Duration

	// Content policy
	MinContentRunes int
	MinTitleRunes   int
	CaptionMaxRunes int
	Hashtag         string

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		LedgerFilePath:    "posted_news.json",
		SourcesConfigPath: "configs/sources.yaml",
		ListingTimeout:    15 * time.Second,
		ArticleTimeout:    25 * time.Second,
		WindowStartHour:   9,
		WindowEndHour:     21,
		PublishPerCycle:   2,
		IngestLimit:       2,
		PauseMin:          2 * time.Minute,
		PauseMax:          3 * time.Minute,
		EmptyBackoff:      10 * time.Minute,
		MinContentRunes:   150,
		MinTitleRunes:     15,
		CaptionMaxRunes:   900,
		Hashtag:           "#новости",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")

	cfg.LedgerFilePath = getEnvOrDefault("LEDGER_FILE_PATH", cfg.LedgerFilePath)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.Hashtag = getEnvOrDefault("POST_HASHTAG", cfg.Hashtag)

	cfg.WindowStartHour = getEnvIntOrDefault("WINDOW_START_HOUR", cfg.WindowStartHour)
	cfg.WindowEndHour = getEnvIntOrDefault("WINDOW_END_HOUR", cfg.WindowEndHour)
	cfg.PublishPerCycle = getEnvIntOrDefault("PUBLISH_PER_CYCLE", cfg.PublishPerCycle)
	cfg.IngestLimit = getEnvIntOrDefault("INGEST_LIMIT", cfg.IngestLimit)
	cfg.MinContentRunes = getEnvIntOrDefault("MIN_CONTENT_RUNES", cfg.MinContentRunes)
	cfg.MinTitleRunes = getEnvIntOrDefault("MIN_TITLE_RUNES", cfg.MinTitleRunes)
	cfg.CaptionMaxRunes = getEnvIntOrDefault("CAPTION_MAX_RUNES", cfg.CaptionMaxRunes)

	cfg.PauseMin = getEnvSecondsOrDefault("PAUSE_MIN_SECONDS", cfg.PauseMin)
	cfg.PauseMax = getEnvSecondsOrDefault("PAUSE_MAX_SECONDS", cfg.PauseMax)
	cfg.EmptyBackoff = getEnvSecondsOrDefault("EMPTY_BACKOFF_SECONDS", cfg.EmptyBackoff)
	cfg.ListingTimeout = getEnvSecondsOrDefault("LISTING_TIMEOUT_SECONDS", cfg.ListingTimeout)
	cfg.ArticleTimeout = getEnvSecondsOrDefault("ARTICLE_TIMEOUT_SECONDS", cfg.ArticleTimeout)

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return time.Duration(intValue) * time.Second
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	if c.WindowStartHour < 0 || c.WindowStartHour > 23 || c.WindowEndHour < 1 || c.WindowEndHour > 24 {
		return fmt.Errorf("working window hours out of range")
	}
	if c.WindowStartHour >= c.WindowEndHour {
		return fmt.Errorf("WINDOW_START_HOUR must be before WINDOW_END_HOUR")
	}
	if c.PauseMin > c.PauseMax {
		return fmt.Errorf("PAUSE_MIN_SECONDS must not exceed PAUSE_MAX_SECONDS")
	}
	return nil
}
