package internal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "PORT", "DATABASE_URL", "ORGANIZATION_ID", "METRICS_NAMESPACE", "CALC_WORKERS",
		"ADMIN_RATE_FOREX_RISK", "ADMIN_RATE_FIN_COMMISSION", "ADMIN_RATE_LOAN_INTEREST_DAILY",
		"SENTRY_DSN", "SENTRY_ENABLED", "SENTRY_SAMPLE_RATE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "kvota", cfg.MetricsNamespace)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000001"), cfg.OrganizationID)
	assert.Equal(t, "3", cfg.Admin.ForexRiskRate.String())
	assert.Equal(t, "2", cfg.Admin.FinCommissionRate.String())
	assert.Equal(t, "0.069", cfg.Admin.LoanInterestDaily.String())
	assert.False(t, cfg.Sentry.Enabled)
	assert.Equal(t, 1.0, cfg.Sentry.SampleRate)
}

func TestNewConfig_Overrides(t *testing.T) {
	orgID := uuid.New()
	t.Setenv("ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ORGANIZATION_ID", orgID.String())
	t.Setenv("CALC_WORKERS", "16")
	t.Setenv("ADMIN_RATE_LOAN_INTEREST_DAILY", "0.05")
	t.Setenv("SENTRY_ENABLED", "true")
	t.Setenv("SENTRY_DSN", "https://public@example.com/1")
	t.Setenv("SENTRY_SAMPLE_RATE", "0.25")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, orgID, cfg.OrganizationID)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "0.05", cfg.Admin.LoanInterestDaily.String())
	assert.True(t, cfg.Sentry.Enabled)
	assert.Equal(t, "https://public@example.com/1", cfg.Sentry.DSN)
	assert.Equal(t, 0.25, cfg.Sentry.SampleRate)
}

func TestNewConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("CALC_WORKERS", "0")
	t.Setenv("ORGANIZATION_ID", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Workers)
}

func TestNewConfig_Errors(t *testing.T) {
	t.Run("organization id", func(t *testing.T) {
		t.Setenv("ORGANIZATION_ID", "not-a-uuid")
		_, err := NewConfig()
		assert.ErrorContains(t, err, "ORGANIZATION_ID")
	})

	t.Run("rate", func(t *testing.T) {
		t.Setenv("ORGANIZATION_ID", "")
		t.Setenv("ADMIN_RATE_FOREX_RISK", "3%")
		_, err := NewConfig()
		assert.ErrorContains(t, err, "ADMIN_RATE_FOREX_RISK")
	})
}

func TestNewLogger_ProdJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "debug")

	logger.Debug("quote calculated", "items", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kvota", record["service"])
	assert.Equal(t, "quote calculated", record["msg"])
	assert.EqualValues(t, 3, record["items"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "dev", "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
