package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
	"github.com/keerthik-19/summer-camp-registration/internal/handlers"
)

// Deps are the collaborators the router wires into handlers. Redis may be
// nil, which turns rate limiting off.
type Deps struct {
	API       *handlers.API
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
}

func Router(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	api := d.API
	limit := func(route string) func(http.Handler) http.Handler {
		return handlers.RateLimit(d.RateLimit, d.Redis, route)
	}

	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/programs", handlers.Programs)

		// Public registration + self-service lookup
		ar.Post("/registrations", api.CreateRegistration)
		ar.With(limit("lookup")).Post("/registrations/lookup", api.Lookup)
		ar.Get("/registrations/{id}", api.GetRegistration)

		// Admin auth endpoints
		ar.With(limit("login")).Post("/admin/login", api.AdminLogin)

		// Guarded admin API
		ar.Group(func(ag chi.Router) {
			ag.Use(api.RequireAdmin)

			ag.Post("/admin/logout", api.AdminLogout)
			ag.Get("/admin/me", api.AdminMe)
			ag.Get("/admin/stats", api.AdminStats)
			ag.Get("/admin/registrations.csv", api.AdminRosterCSV)

			ag.Get("/registrations", api.ListRegistrations)
			ag.Post("/registrations/bulk-reminder", api.BulkReminder)
			ag.Patch("/registrations/{id}/status", api.UpdateStatus)
			ag.Patch("/registrations/{id}/payment", api.UpdatePayment)
			ag.Delete("/registrations/{id}", api.DeleteRegistration)
			ag.Post("/registrations/{id}/send-reminder", api.SendReminder)
			ag.Get("/registrations/{id}/qr.png", api.QR)
			ag.Get("/registrations/{id}/email-preview", api.EmailPreview)
		})
	})

	return r
}
