package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calculation outcomes used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeUnknownLookup = "unknown_lookup"
	OutcomeError         = "error"
)

// CalculationMetrics holds Prometheus metrics for quote calculations.
// All metrics include organization_id for per-organization dashboards.
type CalculationMetrics struct {
	Calculations      *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec
	Duration          *prometheus.HistogramVec
	ItemsPerQuote     *prometheus.HistogramVec
	QuoteSubtotal     *prometheus.HistogramVec
	FinancingCost     *prometheus.CounterVec
	SettingsSnapshots *prometheus.CounterVec
}

// NewCalculationMetrics creates the metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewCalculationMetrics(namespace string, reg prometheus.Registerer) *CalculationMetrics {
	if namespace == "" {
		namespace = "kvota"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	subsystem := "calculation"

	return &CalculationMetrics{
		Calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "total",
				Help:      "Total quote calculations by outcome",
			},
			[]string{"organization_id", "sale_type", "outcome"},
		),
		ValidationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validation_errors_total",
				Help:      "Total violated input rules by field",
			},
			[]string{"organization_id", "field"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Time to calculate a quote",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"organization_id", "outcome"},
		),
		ItemsPerQuote: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "items_per_quote",
				Help:      "Line items per calculated quote",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"organization_id"},
		),
		QuoteSubtotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "quote_subtotal",
				Help:      "Quote subtotal without VAT, in quote currency",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"organization_id", "currency"},
		),
		FinancingCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "financing_cost_total",
				Help:      "Sum of quote financing cost, in quote currency",
			},
			[]string{"organization_id", "currency"},
		),
		SettingsSnapshots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settings_snapshots_total",
				Help:      "Admin settings snapshots fetched, by result",
			},
			[]string{"organization_id", "result"},
		),
	}
}
