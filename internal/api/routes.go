package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/estate-intake/internal/intake"
)

// Handler bundles the HTTP layer around the intake pipeline.
type Handler struct {
	svc *intake.Service
}

// NewHandler creates the HTTP handler with its pipeline service.
func NewHandler(svc *intake.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes builds the service router. allowedOrigins are the landing-site
// origins permitted to call the API from the browser; empty disables the
// CORS layer (same-origin deployments).
func (h *Handler) Routes(allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Distinct-Id"},
			MaxAge:         300,
		}))
	}

	r.Post("/api/register", h.HandleRegister)
	r.Get("/health", h.HandleHealth)
	return r
}
