package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env              string
	LogLevel         string
	Port             int
	DatabaseUrl      string // optional; enables the postgres admin settings store
	OrganizationID   uuid.UUID
	MetricsNamespace string
	Workers          int // first-pass parallelism
	Admin            AdminDefaults
	Sentry           SentryConfig
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	SampleRate  float64
	Debug       bool
}

// AdminDefaults are the organization settings used when no settings store
// is configured. Rates are in percent units.
type AdminDefaults struct {
	ForexRiskRate     decimal.Decimal
	FinCommissionRate decimal.Decimal
	LoanInterestDaily decimal.Decimal
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Debug(".env file not found, using environment variables and defaults")
		}
	}

	orgID, err := uuid.Parse(getEnv("ORGANIZATION_ID", "00000000-0000-0000-0000-000000000001"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORGANIZATION_ID: %w", err)
	}

	cfg := &Config{
		Env:              getEnv("ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvInt("PORT", 8080),
		DatabaseUrl:      getEnv("DATABASE_URL", ""),
		OrganizationID:   orgID,
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "kvota"),
		Workers:          getEnvInt("CALC_WORKERS", 4),
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Enabled:     getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:     getEnv("SENTRY_RELEASE", ""),
			SampleRate:  getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			Debug:       getEnvBool("SENTRY_DEBUG", false),
		},
	}

	if cfg.Admin.ForexRiskRate, err = getEnvDecimal("ADMIN_RATE_FOREX_RISK", "3"); err != nil {
		return nil, err
	}
	if cfg.Admin.FinCommissionRate, err = getEnvDecimal("ADMIN_RATE_FIN_COMMISSION", "2"); err != nil {
		return nil, err
	}
	if cfg.Admin.LoanInterestDaily, err = getEnvDecimal("ADMIN_RATE_LOAN_INTEREST_DAILY", "0.069"); err != nil {
		return nil, err
	}

	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
