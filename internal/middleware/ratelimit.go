package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/metrics"
)

// Limiter is the subset of a Redis client used for fixed-window counting.
type Limiter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit allows limit.Requests per client IP within each limit.Window,
// keyed as rl:<window seconds>:<ip>. Redis failures let the request through.
func RateLimit(logger *slog.Logger, client Limiter, limit config.RateLimit) Middleware {
	window := strconv.FormatInt(int64(limit.Window.Seconds()), 10)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:" + window + ":" + clientIP(r)
			ctx := r.Context()

			n, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.Any("error", err))
				w.Header().Set("X-RateLimit-Error", "redis-error")
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				if err := client.Expire(ctx, key, limit.Window).Err(); err != nil {
					logger.Warn("unable to set rate limit expiry", slog.Any("error", err))
				}
			}

			remaining := int64(limit.Requests) - n
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(limit.Requests) {
				metrics.RateLimited.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
