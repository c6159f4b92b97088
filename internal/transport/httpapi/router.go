package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable. *bun.DB satisfies
// it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Appointments *AppointmentsHandler
	DB           Pinger
	Log          *slog.Logger
	Metrics      *Metrics
}

// NewRouter assembles the HTTP surface: request ids, access logs, panic
// recovery and metrics around the versioned API, plus the operational
// endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	if cfg.Log != nil {
		r.Use(AccessLog(cfg.Log))
	}
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
	}

	r.Get("/healthz", healthz(cfg.DB, cfg.Log))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	r.Mount("/api/v1", cfg.Appointments.Routes())

	return r
}

func healthz(db Pinger, log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				log.Error("health check failed", slog.Any("err", err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
