package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the engine.
type AppConfig struct {
	DatabaseURL        string
	LogLevel           string
	Environment        string
	CronSpecTick       string        // scheduler tick granularity
	DefaultAutoRunTime string        // HH:MM used when a firm enables automation without a time
	GenerationTimeout  time.Duration // per-firm generation batch timeout
	AdminUserIDs       []int64       // users allowed to manage patterns and automation
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't
	// exist. godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecTick = os.Getenv("CRON_SPEC_TICK")
	if cfg.CronSpecTick == "" {
		cfg.CronSpecTick = "* * * * *" // Default: every minute
	}

	cfg.DefaultAutoRunTime = os.Getenv("DEFAULT_AUTO_RUN_TIME")
	if cfg.DefaultAutoRunTime == "" {
		cfg.DefaultAutoRunTime = "07:00"
	}
	if _, err := time.Parse("15:04", cfg.DefaultAutoRunTime); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_AUTO_RUN_TIME %q: %w", cfg.DefaultAutoRunTime, err)
	}

	timeoutStr := os.Getenv("GENERATION_TIMEOUT")
	if timeoutStr == "" {
		timeoutStr = "5m"
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_TIMEOUT %q: %w", timeoutStr, err)
	}
	cfg.GenerationTimeout = timeout

	adminIDsStr := os.Getenv("ADMIN_USER_IDS")
	if adminIDsStr == "" {
		return nil, fmt.Errorf("ADMIN_USER_IDS is not set")
	}
	for _, part := range strings.Split(adminIDsStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", part, err)
		}
		cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
	}
	if len(cfg.AdminUserIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_USER_IDS contains no valid IDs")
	}

	return cfg, nil
}
