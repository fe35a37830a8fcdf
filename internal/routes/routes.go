package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindsoothe-backend/internal/handlers"
)

// Handlers holds everything the API routes are served by. SubmitLimit,
// when set, wraps only journal submissions.
type Handlers struct {
	Journal     *handlers.JournalHandler
	Health      http.HandlerFunc
	SubmitLimit func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, h Handlers) {
	// Health check for monitoring
	r.Get("/api/health", h.Health)

	// Journaling routes
	r.Get("/api/journal", h.Journal.GetJournals)
	r.Group(func(r chi.Router) {
		if h.SubmitLimit != nil {
			r.Use(h.SubmitLimit)
		}
		r.Post("/api/journal", h.Journal.CreateJournal)
	})
}
