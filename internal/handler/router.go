package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/metrics"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterConfig contains the handlers and middleware wiring for the API.
type RouterConfig struct {
	UserHandler    *UserHandler
	ProductHandler *ProductHandler
	AuthHandler    *AuthHandler
	Health         HealthChecker
	EnableMetrics  bool
	Logger         zerolog.Logger
}

// NewRouter assembles the chi router for the Stockroom API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(IdentityMiddleware)
	if cfg.EnableMetrics {
		r.Use(metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(req.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	cfg.UserHandler.RegisterRoutes(r)
	cfg.ProductHandler.RegisterRoutes(r)
	if cfg.AuthHandler != nil {
		cfg.AuthHandler.RegisterRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondMessage(w, http.StatusNotFound, "404 Not Found")
	})

	return r
}
