// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Telemetry exporters accepted by OTEL_EXPORTER.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// Defaults for optional settings.
const (
	DefaultCacheDBPath          = "data/cache.db"
	DefaultCacheFreshFor        = 48 * time.Hour
	DefaultCacheRetainFor       = 14 * 24 * time.Hour
	DefaultDuesReminderSchedule = "0 10 5 * *"
	DefaultCacheWarmSchedule    = "0 3 * * *"
	DefaultTimezone             = "America/Sao_Paulo"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	GeminiAPIKey     string
	GeminiModel      string
	LogLevel         string
	LogFormat        string
	AdminUserIDs     []int64
	AdminUsernames   []string

	CacheDBPath    string
	CacheFreshFor  time.Duration
	CacheRetainFor time.Duration

	DuesReminderEnabled  bool
	DuesReminderSchedule string
	CacheWarmSchedule    string
	Timezone             string

	OTelExporter string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		LogFormat:            os.Getenv("LOG_FORMAT"),
		CacheDBPath:          DefaultCacheDBPath,
		CacheFreshFor:        DefaultCacheFreshFor,
		CacheRetainFor:       DefaultCacheRetainFor,
		DuesReminderSchedule: DefaultDuesReminderSchedule,
		CacheWarmSchedule:    DefaultCacheWarmSchedule,
		Timezone:             DefaultTimezone,
		OTelExporter:         ExporterNone,
	}

	if path := strings.TrimSpace(os.Getenv("CACHE_DB_PATH")); path != "" {
		cfg.CacheDBPath = path
	}
	if d, ok := parsePositiveDuration(os.Getenv("CACHE_FRESH_FOR")); ok {
		cfg.CacheFreshFor = d
	}
	if d, ok := parsePositiveDuration(os.Getenv("CACHE_RETAIN_FOR")); ok {
		cfg.CacheRetainFor = d
	}

	cfg.DuesReminderEnabled = os.Getenv("DUES_REMINDER_ENABLED") == "true"
	if schedule := strings.TrimSpace(os.Getenv("DUES_REMINDER_SCHEDULE")); schedule != "" {
		cfg.DuesReminderSchedule = schedule
	}
	if schedule := strings.TrimSpace(os.Getenv("CACHE_WARM_SCHEDULE")); schedule != "" {
		cfg.CacheWarmSchedule = schedule
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.Timezone = tz
		}
	}
	if exp := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER"))); exp != "" {
		cfg.OTelExporter = exp
	}

	if idsStr := os.Getenv("ADMIN_USER_IDS"); idsStr != "" {
		for idStr := range strings.SplitSeq(idsStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	if usernames := os.Getenv("ADMIN_USERNAMES"); usernames != "" {
		for username := range strings.SplitSeq(usernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			// Remove @ prefix if present
			username = strings.TrimPrefix(username, "@")
			cfg.AdminUsernames = append(cfg.AdminUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parsePositiveDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.AdminUserIDs) == 0 && len(c.AdminUsernames) == 0 {
		errs = append(errs, "at least one admin (ADMIN_USER_IDS or ADMIN_USERNAMES) is required")
	}

	if c.CacheRetainFor < c.CacheFreshFor {
		errs = append(errs, "CACHE_RETAIN_FOR must not be shorter than CACHE_FRESH_FOR")
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLPGRPC, ExporterOTLPHTTP:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not supported", c.OTelExporter))
	}

	if c.DuesReminderEnabled {
		if _, err := cron.ParseStandard(c.DuesReminderSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("DUES_REMINDER_SCHEDULE is invalid: %v", err))
		}
	}
	if _, err := cron.ParseStandard(c.CacheWarmSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("CACHE_WARM_SCHEDULE is invalid: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsAdmin checks if a Telegram user ID or username belongs to a club admin.
func (c *Config) IsAdmin(userID int64, username string) bool {
	if slices.Contains(c.AdminUserIDs, userID) {
		return true
	}

	// Usernames are compared case-insensitively.
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, admin := range c.AdminUsernames {
			if strings.EqualFold(admin, username) {
				return true
			}
		}
	}

	return false
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
