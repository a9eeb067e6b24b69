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
  5. RateLimit:  Per-client token bucket

ROUTE GROUPS:
  /api/employees/*   Roster listing and seeding
  /api/weeks/*       Week generation, lifecycle, grid, day edits
  /api/requests/*    Leave requests and conflict checks

CACHING:
  The read-heavy week endpoints sit behind a short-TTL response cache;
  everything else is served live.

SECURITY NOTE:
  Identity comes from the X-Employee-ID / X-Employee-Role headers set by
  an upstream gateway. There is no authentication in this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Cache and rate-limit middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

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
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Employee-ID", "X-Employee-Role"},
		AllowCredentials: true,
	}))
	r.Use(RateLimit(20, 40))

	readCache := CacheGET(5 * time.Second)

	r.Route("/api", func(r chi.Router) {
		// Roster
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SeedEmployee)
		})

		// Weeks
		r.Route("/weeks", func(r chi.Router) {
			r.Post("/", h.GenerateWeek)
			r.Get("/", h.ListWeeks)
			r.Get("/current", h.CurrentWeek)
			r.Get("/by-date", h.WeekByDate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWeek)
				r.With(readCache).Get("/detail", h.GetWeekDetail)
				r.With(readCache).Get("/hours", h.GetWeekHours)
				r.Put("/status", h.ChangeWeekStatus)
				r.Delete("/", h.DeleteWeek)
				r.Put("/days", h.EditDaysBulk)
				r.Put("/days/{employeeID}/{date}", h.EditDay)
			})
		})

		// Leave requests
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/", h.AllRequests)
			r.Get("/mine", h.MyRequests)
			r.Get("/pending", h.PendingRequests)
			r.Get("/check", h.CheckConflicts)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRequest)
				r.Put("/", h.EditRequest)
				r.Post("/decide", h.DecideRequest)
				r.Post("/correct", h.CorrectRequest)
			})
		})
	})

	return r
}
