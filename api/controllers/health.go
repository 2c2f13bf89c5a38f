package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/redis"
)

const (
	envHeader    = "X-Campaign-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis when it is configured. A nil pinger reports the
// component as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{"redis": "disabled"}
		if redisPinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").
					WithDetails(map[string]string{"redis": "unavailable"}))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
