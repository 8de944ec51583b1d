package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalculationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCalculationMetrics("kvota_test", reg)

	m.Calculations.WithLabelValues("org-1", "supply", OutcomeSuccess).Inc()
	m.Calculations.WithLabelValues("org-1", "supply", OutcomeSuccess).Inc()
	m.ValidationErrors.WithLabelValues("org-1", "markup").Inc()
	m.FinancingCost.WithLabelValues("org-1", "USD").Add(12.5)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Calculations.WithLabelValues("org-1", "supply", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ValidationErrors.WithLabelValues("org-1", "markup")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.FinancingCost.WithLabelValues("org-1", "USD")))

	n, err := testutil.GatherAndCount(reg, "kvota_test_calculation_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewCalculationMetrics_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCalculationMetrics("", reg)
	m.SettingsSnapshots.WithLabelValues("org-1", "ok").Inc()

	n, err := testutil.GatherAndCount(reg, "kvota_calculation_settings_snapshots_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewCalculationMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCalculationMetrics("dup", reg)
	assert.Panics(t, func() { NewCalculationMetrics("dup", reg) })
}
