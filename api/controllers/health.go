package controllers

import (
	"context"
	"net/http"

	"github.com/bakehouse-labs/bakehouse-backend/api/responses"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

const envHeader = "X-Bakehouse-Env"

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies and reports per-check status.
func HealthReady(cfg *config.Config, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		statuses := map[string]string{}
		healthy := true
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				statuses[name] = "unreachable"
				healthy = false
				continue
			}
			statuses[name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
