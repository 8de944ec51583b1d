package handler

import (
	"context"
	"net/http"

	"github.com/dukerupert/kvota/internal/calc"
	"github.com/dukerupert/kvota/internal/service"
	"github.com/google/uuid"
)

// QuoteCalculator is the service behind QuoteHandler.
type QuoteCalculator interface {
	Calculate(ctx context.Context, params service.CalculateParams) (*calc.QuoteCalculation, error)
}

// QuoteHandler serves POST /api/v1/quotes/calculate.
type QuoteHandler struct {
	calculator QuoteCalculator
	defaultOrg uuid.UUID
}

// NewQuoteHandler creates a QuoteHandler. Requests without organization_id
// are calculated for defaultOrg.
func NewQuoteHandler(calculator QuoteCalculator, defaultOrg uuid.UUID) *QuoteHandler {
	return &QuoteHandler{calculator: calculator, defaultOrg: defaultOrg}
}

// Calculate decodes a CalculateRequest and responds with the full quote
// calculation, or with every violated rule at once.
func (h *QuoteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	req, err := service.DecodeRequest(r.Body)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	params, err := req.Params()
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if params.OrganizationID == uuid.Nil {
		params.OrganizationID = h.defaultOrg
	}

	result, err := h.calculator.Calculate(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
