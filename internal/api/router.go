package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vetlink/appointment-notifier/internal/appointment"
)

type RouterConfig struct {
	Store          *appointment.Store
	Env            string
	Version        string
	RateLimitRPS   float64
	RateLimitBurst int
	Log            zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(RecoverMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.Env, cfg.Version)
	r.Get("/", health.Root)
	r.Get("/health/live", health.Liveness)

	// Submission endpoint, rate limited per client IP
	rl := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.With(rl.Middleware).Post("/", submitAppointmentHandler(cfg.Store, cfg.Log))

	return r
}
