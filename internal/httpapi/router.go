// Package httpapi assembles the commune HTTP surface: the middleware chain,
// the per-module handlers, and the ops endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"commune/internal/platform/middleware"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs from main.
type RouterConfig struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	RequestTimeout time.Duration
	Handlers       []Registrar
	// Healthcheck reports readiness of the backing stores; nil means always
	// healthy (memory deployment).
	Healthcheck func(r *http.Request) error
}

// NewRouter builds the full route tree. All ledger routes sit behind bearer
// auth; /healthz and /metrics stay open.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Healthcheck != nil {
			if err := cfg.Healthcheck(req); err != nil {
				cfg.Logger.ErrorContext(req.Context(), "healthcheck failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(protected)
		}
	})

	return r
}
