package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"eventticketing/internal/adapters/ratelimit"
	h "eventticketing/internal/delivery/http/helpers"
)

// RateLimit throttles a route per client IP. Limiter errors fail open.
func RateLimit(limiter ratelimit.Limiter, scope string, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)
			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable", "scope", scope, "err", err)
				next(w, r)
				return
			}
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", d.RetryAfterSeconds())
				h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "too many requests")
				return
			}
			next(w, r)
		}
	}
}

// clientIP uses RemoteAddr. Forwarding headers only count when the router
// trusts its proxy and chi's RealIP has rewritten RemoteAddr from them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
