package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)

	// Moderation endpoint (API key auth, handled by the pipeline)
	r.Post("/moderate", s.HandleModerate)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Dashboard routes (JWT auth)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", s.HandleListAPIKeys)
			r.Post("/", s.HandleCreateAPIKey)
			r.Delete("/{id}", s.HandleDeactivateAPIKey)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", s.HandleListModerationLogs)
			r.Get("/{id}", s.HandleGetModerationLog)
		})

		r.Get("/usage", s.HandleUsage)
	})
}
