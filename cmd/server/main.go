package main

import (
	"net/http"

	"github.com/evyataryagoni/ipgeo/internal/config"
	"github.com/evyataryagoni/ipgeo/internal/handler"
	"github.com/evyataryagoni/ipgeo/internal/limiter"
	"github.com/evyataryagoni/ipgeo/internal/logger"
	"github.com/evyataryagoni/ipgeo/internal/metrics"
	"github.com/evyataryagoni/ipgeo/internal/router"
	"github.com/evyataryagoni/ipgeo/internal/service"
	"github.com/evyataryagoni/ipgeo/internal/store"
	"github.com/evyataryagoni/ipgeo/ipapi"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	historyStore := setupHistoryStore(appConfig, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	metricsCollector := metrics.New(prometheus.DefaultRegisterer)
	client := setupClient(appConfig, appLogger)

	// Build application layers
	lookupService := service.NewLookupService(client, historyStore, appConfig.HistoryLimit, metricsCollector, appLogger)
	defer lookupService.Close()

	lookupHandler := handler.NewLookupHandler(lookupService, appConfig.IPAPIUseHTTPS)
	appRouter := router.SetupRouter(lookupHandler, rateLimiter, metricsCollector, prometheus.DefaultGatherer, appLogger)

	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting ipgeo server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("ipapi_host", appConfig.IPAPIHost).
		Bool("ipapi_https", appConfig.IPAPIUseHTTPS).
		Dur("ipapi_timeout", appConfig.IPAPITimeout).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("history_store_type", appConfig.HistoryStoreType).
		Int("history_limit", appConfig.HistoryLimit).
		Msg("Configuration loaded")

	return appLogger
}

// setupHistoryStore initializes the history store
// Supports CSV, MySQL, and Redis backends
func setupHistoryStore(appConfig *config.Config, log *logger.Logger) store.Store {
	historyStore, err := store.NewStore(store.StoreConfig{
		Type:          appConfig.HistoryStoreType,
		CSVPath:       appConfig.HistoryCSVPath,
		Retain:        appConfig.HistoryLimit,
		MySQLDSN:      appConfig.MySQLDSN,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("type", appConfig.HistoryStoreType).Msg("Failed to initialize history store")
	}

	log.Info().Str("type", appConfig.HistoryStoreType).Msg("History store initialized")
	return historyStore
}

// setupRateLimiter initializes the inbound rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	// Example: 10 requests per 5 seconds = 2.0 req/s
	window := max(appConfig.RateLimitWindow, 1)
	effectiveRate := float64(appConfig.RateLimit) / float64(window)

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:              appConfig.RateLimitType,
		RequestsPerSecond: effectiveRate,
		RedisAddr:         appConfig.RedisAddr,
		RedisPassword:     appConfig.RedisPassword,
		RedisDB:           appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Float64("requests_per_second", effectiveRate).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupClient builds the ip-api client; the timeout lives on the http.Client
func setupClient(appConfig *config.Config, log *logger.Logger) *ipapi.Client {
	client := ipapi.NewClient(
		ipapi.WithHost(appConfig.IPAPIHost),
		ipapi.WithDoer(&http.Client{Timeout: appConfig.IPAPITimeout}),
	)
	log.Info().Str("host", appConfig.IPAPIHost).Msg("ip-api client initialized")
	return client
}

// startServer starts the HTTP server and blocks
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	serverAddr := ":" + appConfig.Port

	log.Info().
		Str("port", appConfig.Port).
		Str("lookup", "http://localhost:"+appConfig.Port+"/v1/lookup?target=<ip-or-host>").
		Str("history", "http://localhost:"+appConfig.Port+"/v1/history?target=<ip-or-host>").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Msg("Server is running")

	log.Fatal().Err(http.ListenAndServe(serverAddr, appRouter)).Msg("Server failed")
}
