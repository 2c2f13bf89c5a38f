package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/redis"
)

const chatRateLimitPolicy = "chat"

// ChatRateLimit caps chat requests per session (or per client IP when the
// route has no session) in fixed windows. A nil limiter disables the check.
func ChatRateLimit(limiter redis.RateLimiter, cfg config.ChatRateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || cfg.Window <= 0 || cfg.Limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope, subject := chatScope(r)

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(cfg.Limit), cfg.Window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				respondRateLimited(ctx, logg, w, subject, count, cfg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func chatScope(r *http.Request) (string, string) {
	if id := strings.TrimSpace(chi.URLParam(r, "sessionId")); id != "" {
		return chatRateLimitPolicy + ":session:" + id, "session"
	}
	return chatRateLimitPolicy + ":ip:" + clientIP(r), "ip"
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, subject string, count int64, cfg config.ChatRateLimitConfig) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          subject,
			"policy":         chatRateLimitPolicy,
			"attempts":       count,
			"limit":          cfg.Limit,
			"window_seconds": int(cfg.Window / time.Second),
		})
		logg.Warn(logCtx, "chat.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window/time.Second)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "chat rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
