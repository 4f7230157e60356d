// Package httptransport is the thin HTTP layer over the verification
// pipeline. Handlers delegate to domain services and never embed business
// logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetgate/internal/platform/middleware"
	"assetgate/pkg/platform/httputil"
)

// HealthChecker reports the health of one dependency, keyed by name.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Submissions *SubmissionHandler
	Assets      *AssetHandler
	Validator   middleware.JWTValidator
	// AuthDisabled skips bearer auth on the API, for local development.
	AuthDisabled bool
	Health       map[string]HealthChecker
	Logger       *slog.Logger
}

// NewRouter wires all endpoints. The API lives under /api/v1 behind bearer
// auth; health and metrics stay open.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.AuthDisabled {
			r.Use(middleware.RequireAuth(cfg.Validator, cfg.Logger))
		}
		cfg.Submissions.Register(r)
		cfg.Assets.Register(r)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
