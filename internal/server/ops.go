package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const readinessTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig contains configuration for the ops HTTP handler.
type OpsConfig struct {
	Store       Pinger
	Gatherer    prometheus.Gatherer
	MetricsPath string
	Logger      zerolog.Logger
}

type readinessResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewOpsHandler returns the HTTP handler serving liveness, readiness and
// Prometheus metrics.
func NewOpsHandler(cfg OpsConfig) http.Handler {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	logger := cfg.Logger.With().Str("component", "ops").Logger()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, readinessResponse{Status: "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()

		if cfg.Store != nil {
			if err := cfg.Store.Ping(ctx); err != nil {
				logger.Warn().Err(err).Msg("readiness check failed")
				writeJSON(w, http.StatusServiceUnavailable, readinessResponse{Status: "unavailable", Error: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, readinessResponse{Status: "ready"})
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// NewOpsServer wraps handler in an http.Server listening on addr.
func NewOpsServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
