// Package router assembles the HTTP surface of the booking platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/booking"
	httpmiddleware "github.com/turnoflow/booking-platform/internal/http/middleware"
	"github.com/turnoflow/booking-platform/internal/webchat"
	"github.com/turnoflow/booking-platform/internal/workflow"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unregistered.
type Config struct {
	Logger       *logging.Logger
	Availability *availability.Handler
	Bookings     *booking.Handler
	Workflows    *workflow.Handler
	Webchat      *webchat.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// WebchatRatePerSecond limits the public widget endpoints per client IP.
	// Zero disables the limiter.
	WebchatRatePerSecond float64
	WebchatRateBurst     int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, metrics, the embeddable chat widget).
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Webchat != nil {
			public.Route("/webchat", func(r chi.Router) {
				if cfg.WebchatRatePerSecond > 0 {
					burst := cfg.WebchatRateBurst
					if burst <= 0 {
						burst = 20
					}
					r.Use(httpmiddleware.RateLimit(cfg.WebchatRatePerSecond, burst))
				}
				r.Get("/ws", cfg.Webchat.HandleWebSocket)
				r.Post("/message", cfg.Webchat.HandleMessage)
			})
		}
	})

	// Tenant-scoped API routes.
	r.Group(func(tenant chi.Router) {
		tenant.Use(requireTenantID)

		if cfg.Availability != nil {
			tenant.Route("/availability", func(r chi.Router) {
				r.Get("/slots", cfg.Availability.GetSlots)
				r.Route("/providers/{providerID}", func(r chi.Router) {
					r.Get("/schedule", cfg.Availability.GetSchedule)
					r.Put("/schedule", cfg.Availability.PutSchedule)
					r.Get("/exceptions", cfg.Availability.GetExceptions)
					r.Put("/exceptions", cfg.Availability.PutExceptions)
				})
			})
		}

		if cfg.Bookings != nil {
			tenant.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.Bookings.Create)
				r.Get("/", cfg.Bookings.List)
				r.Get("/conversation/{conversationID}", cfg.Bookings.GetByConversation)
				r.Route("/{bookingID}", func(r chi.Router) {
					r.Get("/", cfg.Bookings.Get)
					r.Post("/confirm", cfg.Bookings.Confirm)
					r.Post("/cancel", cfg.Bookings.Cancel)
					r.Post("/no-show", cfg.Bookings.MarkNoShow)
				})
			})
		}

		if cfg.Workflows != nil {
			tenant.Post("/chat/message", cfg.Workflows.HandleMessage)
			tenant.Route("/workflows", func(r chi.Router) {
				r.Get("/", cfg.Workflows.List)
				r.Post("/", cfg.Workflows.Create)
				r.Post("/default", cfg.Workflows.EnsureDefault)
				r.Route("/{workflowID}", func(r chi.Router) {
					r.Get("/", cfg.Workflows.Get)
					r.Put("/", cfg.Workflows.Update)
					r.Delete("/", cfg.Workflows.Delete)
				})
			})
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
