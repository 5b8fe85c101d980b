package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/marketloft-backend/api/responses"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MarketLoft-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency; a nil pinger is skipped so optional
// services do not fail readiness in dev.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, rdb, bq pinger) http.HandlerFunc {
	checks := map[string]pinger{
		"database": db,
		"redis":    rdb,
		"bigquery": bq,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MarketLoft-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := map[string]string{}
		ready := true
		for name, dep := range checks {
			if dep == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				statuses[name] = "down"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "up"
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":       readyLabel(ready),
			"dependencies": statuses,
		})
	}
}

func readyLabel(ready bool) string {
	if ready {
		return "ready"
	}
	return "degraded"
}
