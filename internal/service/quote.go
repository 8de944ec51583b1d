package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/kvota/internal/calc"
	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/resolve"
	"github.com/dukerupert/kvota/internal/settings"
	"github.com/dukerupert/kvota/internal/telemetry"
	"github.com/google/uuid"
)

// CalculateParams identifies the quote being calculated and carries its
// input records.
type CalculateParams struct {
	OrganizationID uuid.UUID
	// CreatedAt selects the admin settings snapshot; zero means now.
	CreatedAt time.Time
	Items     []domain.LineItemInput
	Defaults  domain.QuoteDefaults
}

// QuoteService runs quote calculations against one admin settings snapshot
// per call.
type QuoteService struct {
	engine   *calc.Engine
	settings settings.Provider
	metrics  *telemetry.CalculationMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewQuoteService creates a QuoteService. metrics may be nil.
func NewQuoteService(engine *calc.Engine, provider settings.Provider, metrics *telemetry.CalculationMetrics, logger *slog.Logger) *QuoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteService{
		engine:   engine,
		settings: provider,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Calculate fetches the settings snapshot once, then prices the quote.
// Errors are domain errors: domain.ValidationErrors, *domain.LookupError,
// or *domain.Error for settings failures.
func (s *QuoteService) Calculate(ctx context.Context, params CalculateParams) (*calc.QuoteCalculation, error) {
	start := s.now()
	calcID := uuid.New()
	org := params.OrganizationID.String()

	logger := s.logger.With(
		slog.String("calculation_id", calcID.String()),
		slog.String("organization_id", org),
		slog.Int("items", len(params.Items)),
	)

	at := params.CreatedAt
	if at.IsZero() {
		at = start
	}

	snapshot, err := s.settings.Snapshot(ctx, params.OrganizationID, at)
	if err != nil {
		s.recordSnapshot(org, "error")
		logger.Error("admin settings snapshot failed", slog.String("error", err.Error()))
		s.record(org, "", telemetry.OutcomeError, start)
		return nil, err
	}
	s.recordSnapshot(org, "ok")

	result, err := s.engine.Calculate(ctx, params.Items, params.Defaults, snapshot)
	saleType := saleTypeLabel(params.Defaults.SaleType)

	switch {
	case err == nil:
	case domain.IsValidationError(err):
		errs := domain.GetValidationErrors(err)
		logger.Info("quote rejected by validation",
			slog.Int("violations", len(errs)),
			slog.Any("fields", errs.Fields()),
		)
		s.recordValidation(org, errs)
		s.record(org, saleType, telemetry.OutcomeInvalid, start)
		return nil, err
	case domain.IsLookupError(err):
		logger.Warn("quote references unknown lookup key", slog.String("error", err.Error()))
		s.record(org, saleType, telemetry.OutcomeUnknownLookup, start)
		return nil, err
	default:
		logger.Error("quote calculation failed", slog.String("error", err.Error()))
		s.record(org, saleType, telemetry.OutcomeError, start)
		return nil, domain.Internal(err, "quote.calculate", "failed to calculate quote")
	}

	s.record(org, string(result.SaleType), telemetry.OutcomeSuccess, start)
	if s.metrics != nil {
		s.metrics.ItemsPerQuote.WithLabelValues(org).Observe(float64(len(result.Items)))
		s.metrics.QuoteSubtotal.WithLabelValues(org, result.QuoteCurrency).Observe(result.Subtotal().InexactFloat64())
		s.metrics.FinancingCost.WithLabelValues(org, result.QuoteCurrency).Add(result.TotalFinancingCost().InexactFloat64())
	}

	logger.Info("quote calculated",
		slog.String("sale_type", string(result.SaleType)),
		slog.String("seller_region", string(result.SellerRegion)),
		slog.String("subtotal", result.Subtotal().String()),
		slog.String("total_with_vat", result.TotalWithVAT().String()),
		slog.String("financing_cost", result.TotalFinancingCost().String()),
		slog.Duration("duration", s.now().Sub(start)),
	)
	return result, nil
}

func (s *QuoteService) record(org, saleType, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Calculations.WithLabelValues(org, saleType, outcome).Inc()
	s.metrics.Duration.WithLabelValues(org, outcome).Observe(s.now().Sub(start).Seconds())
}

func (s *QuoteService) recordValidation(org string, errs domain.ValidationErrors) {
	if s.metrics == nil {
		return
	}
	for _, fe := range errs {
		s.metrics.ValidationErrors.WithLabelValues(org, fe.Field).Inc()
	}
}

func (s *QuoteService) recordSnapshot(org, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SettingsSnapshots.WithLabelValues(org, result).Inc()
}

// saleTypeLabel bounds the sale_type label to known values.
func saleTypeLabel(raw string) string {
	st := domain.ParseSaleType(raw)
	switch {
	case st == "":
		return string(resolve.DefaultSaleType)
	case !st.Valid():
		return "unknown"
	}
	return string(st)
}
