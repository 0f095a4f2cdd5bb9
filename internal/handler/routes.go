package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the chi router for the discovery API, including the
// deep-link URL forms.
func Router(h *DiscoveryHandler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)                    // permissive CORS for the map client

	// Health
	r.Get("/health", HealthCheck)

	// API routes
	r.Post("/api/session", h.CreateSession)
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events.ics", h.ExportICS)
	r.Post("/api/events", h.SubmitEvent)
	r.Post("/api/events/{id}/interest", h.MarkInterest)
	r.Post("/api/events/{id}/view", h.MarkViewed)
	r.Get("/api/status", h.Status)
	r.Delete("/api/status", h.DismissStatus)
	r.Get("/api/selection", h.GetSelection)
	r.Post("/api/selection", h.Select)
	r.Delete("/api/selection", h.CloseSelection)
	r.Post("/api/selection/tab", h.SetTab)
	r.Patch("/api/filters", h.UpdateFilters)
	r.Post("/api/filters/categories/{category}/toggle", h.ToggleCategory)
	r.Post("/api/navigate", h.Navigate)

	// Deep-link URL forms, plus the root path (no selection / legacy
	// ?event=id query form).
	r.Get("/e/{slug}", h.DeepLink)
	r.Get("/events/{slug}", h.DeepLink)
	r.Get("/us/{state}/{city}/events/{slug}", h.DeepLink)
	r.Get("/", h.Root)

	return r
}
