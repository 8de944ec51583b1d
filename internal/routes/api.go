package routes

import (
	"github.com/dukerupert/kvota/internal/handler"
	"github.com/dukerupert/kvota/internal/router"
)

// RegisterAPIRoutes registers the calculation API and operational endpoints.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/health", handler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
	r.Post("/api/v1/quotes/calculate", deps.QuoteHandler.Calculate)
}
