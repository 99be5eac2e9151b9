/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

ROUTE GROUPS:
  /api/plans/*   Plan lifecycle, payments, waivers
  /api/sweep/*   Late-fee sweep operations

SECURITY NOTE:
  No authentication middleware; authn/authz belongs to the surrounding
  application, not this engine.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Post("/from-template", h.CreatePlanFromTemplate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Post("/activate", h.ActivatePlan)
				r.Post("/cancel", h.CancelPlan)
				r.Post("/hold", h.HoldPlan)
				r.Post("/resume", h.ResumePlan)
				r.Post("/default", h.DefaultPlan)

				r.Route("/installments/{number}", func(r chi.Router) {
					r.Post("/payments", h.RecordPayment)
					r.Post("/waive", h.WaiveInstallment)
				})
			})
		})

		r.Route("/sweep", func(r chi.Router) {
			r.Post("/run", h.RunSweep)
			r.Get("/runs", h.ListSweepRuns)
		})
	})

	return r
}
