package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Service BookingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Logger  zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Slot catalog
	r.Get("/slots", listSlotsHandler(cfg.Service))

	// Bookings
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/confirm", transitionHandler(cfg.Service.Confirm))
	r.Post("/bookings/{id}/complete", transitionHandler(cfg.Service.Complete))
	r.Post("/bookings/{id}/cancel", transitionHandler(cfg.Service.Cancel))

	// Doctors
	r.Get("/doctors/{id}/availability", resolveAvailabilityHandler(cfg.Service))
	r.Put("/doctors/{id}/template", setTemplateHandler(cfg.Service))
	r.Patch("/doctors/{id}/availability", setDoctorAvailabilityHandler(cfg.Service))
	r.Get("/doctors/{id}/bookings", listDoctorBookingsHandler(cfg.Service))

	// Patients
	r.Get("/patients/{id}/bookings", listPatientBookingsHandler(cfg.Service))
	r.Get("/patients/{pid}/doctors/{did}/completed", hasCompletedBookingHandler(cfg.Service))

	// Aggregates
	r.Get("/stats", statsHandler(cfg.Service))

	return r
}
