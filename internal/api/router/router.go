// Package router assembles the HTTP surface of the salon API.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mydesiresalon/salon-api/internal/appointments"
	"github.com/mydesiresalon/salon-api/internal/attendants"
	httpmiddleware "github.com/mydesiresalon/salon-api/internal/http/middleware"
	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/users"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	UsersHandler        *users.Handler
	AttendantsHandler   *attendants.Handler
	AppointmentsHandler *appointments.Handler
	NotifyHandler       *notify.Handler
	MetricsHandler      http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Account endpoints
	if cfg.UsersHandler != nil {
		r.Post("/signup", cfg.UsersHandler.Signup)
		r.Post("/login", cfg.UsersHandler.Login)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", cfg.UsersHandler.Get)
			r.Put("/", cfg.UsersHandler.Update)
			if cfg.AppointmentsHandler != nil {
				r.Get("/appointments", cfg.AppointmentsHandler.ListByUser)
			}
		})
	}

	// Attendant endpoints
	if cfg.AttendantsHandler != nil {
		r.Route("/attendants", func(r chi.Router) {
			r.Get("/", cfg.AttendantsHandler.List)
			r.Get("/{attendantID}", cfg.AttendantsHandler.Get)
			if cfg.AppointmentsHandler != nil {
				r.Get("/{attendantID}/appointments", cfg.AppointmentsHandler.ListByAttendant)
			}
			// Registering staff is an admin operation.
			r.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).Post("/", cfg.AttendantsHandler.Create)
		})
	}

	// Appointment lifecycle
	if cfg.AppointmentsHandler != nil {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.Book)
			r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
			r.Delete("/{appointmentID}", cfg.AppointmentsHandler.Cancel)

			// Confirm/reject/complete are salon-side decisions.
			r.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				admin.Post("/{appointmentID}/confirm", cfg.AppointmentsHandler.Confirm)
				admin.Post("/{appointmentID}/reject", cfg.AppointmentsHandler.Reject)
				admin.Post("/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)
			})
		})
	}

	// Notification inbox
	if cfg.NotifyHandler != nil {
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotifyHandler.List)
			r.Post("/{notificationID}/read", cfg.NotifyHandler.MarkRead)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
