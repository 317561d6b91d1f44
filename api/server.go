/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/projects/*    Projects, their phases, estimates, and validation
  /api/settings/*    Weekly template and holidays
  /api/events/*      Calendar events
  /api/reset         Database reset (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.SaveProject)
			r.Get("/{id}", h.GetProject)
			r.Delete("/{id}", h.DeleteProject)

			r.Get("/{id}/phases", h.ListPhases)
			r.Post("/{id}/phases", h.SavePhase)
			r.Delete("/{id}/phases/{phaseID}", h.DeletePhase)

			r.Get("/{id}/estimates", h.GetEstimates)
			r.Get("/{id}/validate", h.ValidateProject)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/template", h.GetTemplate)
			r.Put("/template", h.PutTemplate)

			r.Get("/holidays", h.ListHolidays)
			r.Post("/holidays", h.SaveHoliday)
			r.Delete("/holidays/{id}", h.DeleteHoliday)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.SaveEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
