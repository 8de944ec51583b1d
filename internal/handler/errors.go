// Package handler exposes the quote calculator over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/middleware"
	"github.com/dukerupert/kvota/internal/telemetry"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Violations []violationResponse `json:"violations,omitempty"`
}

type violationResponse struct {
	Item    *int   `json:"item,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNKNOWNKEY:
		return http.StatusUnprocessableEntity
	case domain.ENOTFOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse logs err and writes it as a JSON error. Internal details
// never reach the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	body := errorBody{Error: errorDetail{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}}

	if errs := domain.GetValidationErrors(err); errs != nil {
		// Input parsed but broke one or more rules.
		status = http.StatusUnprocessableEntity
		body.Error.Message = "quote input failed validation"
		body.Error.Violations = violations(errs)
	}

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("code", code),
		slog.Int("status", status),
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, slog.String("op", op))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"op":         domain.ErrorOp(err),
			"request_id": middleware.GetRequestID(r.Context()),
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	writeJSON(w, status, body)
}

func violations(errs domain.ValidationErrors) []violationResponse {
	out := make([]violationResponse, len(errs))
	for i, fe := range errs {
		v := violationResponse{SKU: fe.SKU, Field: fe.Field, Message: fe.Message}
		if fe.Item != domain.QuoteLevel {
			item := fe.Item
			v.Item = &item
		}
		out[i] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}
