package routes

import (
	"net/http"

	"github.com/dukerupert/kvota/internal/handler"
)

// APIDeps contains dependencies for the calculation API.
type APIDeps struct {
	QuoteHandler *handler.QuoteHandler

	// MetricsHandler serves /metrics; nil disables the endpoint.
	MetricsHandler http.Handler
}
