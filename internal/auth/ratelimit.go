package auth

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"venue-cms/internal/logger"
	"venue-cms/internal/utils"
)

// LoginRateLimit throttles an endpoint with a fixed window counter per
// client IP, backed by Redis. With a nil client it is a no-op, so the
// server runs fine without Redis in development.
func LoginRateLimit(rdb *redis.Client, limit int, window time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			key := fmt.Sprintf("login_rl:%s", ip)

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				// Redis being down should not lock users out.
				log.Warn("RATELIMIT", fmt.Sprintf("redis incr failed: %v", err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, window)
			}
			if count > int64(limit) {
				log.LogSecurity("RATELIMIT", fmt.Sprintf("login throttled for %s", ip))
				utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
					Success:   false,
					Error:     "too many attempts, try again later",
					Timestamp: time.Now().UTC(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
