package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/imgsniff/internal/api/handler"
	mw "github.com/iconidentify/imgsniff/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. The /api/v1
// routes require apiKey unless it is empty.
func NewRouter(
	probeHandler *handler.ProbeHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}

		r.Get("/stats", healthHandler.Stats)

		r.Post("/probe", probeHandler.Batch)
		r.Get("/probe", probeHandler.ProbeOne)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", probeHandler.ListReports)
			r.Get("/{reportID}", probeHandler.GetReport)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", probeHandler.SubmitJob)
			r.Get("/{jobID}", probeHandler.GetJob)
		})
	})

	return r
}
