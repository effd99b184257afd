package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/evyataryagoni/ipgeo/internal/limiter"
	"github.com/evyataryagoni/ipgeo/internal/models"
)

// RateLimitMiddleware enforces rate limiting per client address (returns 429 when exceeded).
// It protects this service; the upstream quota is reported separately as quota_exceeded.
func RateLimitMiddleware(lim limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow(clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{
					Error: "Rate limit exceeded. Please try again later.",
					Kind:  "rate_limited",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by RemoteAddr without port.
// Proxy headers are not read here; chi's RealIP has already applied them.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
