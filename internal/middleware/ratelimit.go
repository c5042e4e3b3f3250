package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gymwatch/gymwatch/internal/cache"
	"github.com/gymwatch/gymwatch/internal/metrics"
)

// LoginLimiter consumes login attempts. *cache.Cache satisfies it.
type LoginLimiter interface {
	CheckLoginRateLimit(ctx context.Context, ip string, perMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for login rate limiting.
type RateLimitConfig struct {
	Logger    *slog.Logger
	Limiter   LoginLimiter
	Metrics   metrics.Recorder
	Enabled   bool
	PerMinute int
	Burst     int
}

// RateLimitLogin limits POSTs to the login endpoints per client address.
// Redis errors fail open.
func RateLimitLogin(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			result, err := cfg.Limiter.CheckLoginRateLimit(r.Context(), ip, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("login rate limit check failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				retry := int(result.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				cfg.Metrics.IncLogin(metrics.LoginRateLimited)
				cfg.Logger.Warn("login rate limit exceeded",
					slog.String("ip", ip),
					slog.Int("retry_after_seconds", retry),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retry))
				if strings.HasPrefix(r.URL.Path, "/api/") {
					writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many login attempts. Try again later.")
					return
				}
				http.Error(w, "Too many login attempts. Try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP runs earlier and
// has already applied X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
