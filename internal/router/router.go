package router

import (
	"encoding/json"
	"net/http"

	"github.com/evyataryagoni/ipgeo/internal/handler"
	"github.com/evyataryagoni/ipgeo/internal/limiter"
	"github.com/evyataryagoni/ipgeo/internal/logger"
	"github.com/evyataryagoni/ipgeo/internal/metrics"
	custommiddleware "github.com/evyataryagoni/ipgeo/internal/middleware"
	v1 "github.com/evyataryagoni/ipgeo/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Parameters:
//   - lookupHandler: the lookup and history handler
//   - rateLimiter: the inbound rate limiter (memory or Redis)
//   - m: metrics collector
//   - gatherer: what /metrics exposes; the registry m was registered with
//   - log: structured logger
func SetupRouter(lookupHandler *handler.LookupHandler, rateLimiter limiter.Limiter, m *metrics.Metrics, gatherer prometheus.Gatherer, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	// Order matters: RequestID first, then logging, then rate limiting
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(m))

	// Health and metrics are not rate limited
	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(rateLimiter))
		r.Mount("/v1", v1.SetupRoutes(lookupHandler))
	})

	return r
}

// healthCheckHandler reports that the process is up.
// It does not call ip-api.com, which would spend upstream quota.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
