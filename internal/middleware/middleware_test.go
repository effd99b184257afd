package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evyataryagoni/ipgeo/internal/logger"
	"github.com/evyataryagoni/ipgeo/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsMiddleware_RoutePattern tests that targets do not become label values
func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	for _, target := range []string{"8.8.8.8", "1.1.1.1", "example.com"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/lookup?target="+target, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/lookup", "200")); got != 3 {
		t.Errorf("expected 3 requests on /v1/lookup, got %v", got)
	}
	if n := testutil.CollectAndCount(m.HTTPRequestsTotal); n != 1 {
		t.Errorf("expected a single series, got %d", n)
	}
}

// TestMetricsMiddleware_Status tests that the written status code is recorded
func TestMetricsMiddleware_Status(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/history", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/history", "400")); got != 1 {
		t.Errorf("expected 1 request with status 400, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}

// TestMetricsMiddleware_ResponseSize tests the written byte count and the implicit 200
func TestMetricsMiddleware_ResponseSize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city":"Ashburn"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/lookup", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")); got != 1 {
		t.Errorf("expected empty response counted as 200, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	var sum float64
	for _, mf := range families {
		if mf.GetName() != "http_response_size_bytes" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			sum += metric.GetHistogram().GetSampleSum()
		}
	}
	if sum != float64(len(`{"city":"Ashburn"}`)) {
		t.Errorf("expected %d response bytes, got %v", len(`{"city":"Ashburn"}`), sum)
	}
}

// TestMetricsMiddleware_NilMetrics tests that a nil collector is a no-op
func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	called := false
	handler := MetricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Error("expected next handler to be called")
	}
}

// TestLoggingMiddleware tests the completion log line
func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success", http.StatusOK, "info"},
		{"client error", http.StatusUnprocessableEntity, "warn"},
		{"upstream error", http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "info", Output: &buf})

			handler := middleware.RequestID(LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodGet, "/v1/lookup?target=8.8.8.8", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			// Request started is logged at debug and filtered out here
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != 1 {
				t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
			}

			var entry map[string]interface{}
			if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
				t.Fatalf("failed to parse log line: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, entry["level"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("expected status %d, got %v", tt.status, entry["status"])
			}
			if entry["query"] != "target=8.8.8.8" {
				t.Errorf("expected query to be logged, got %v", entry["query"])
			}
			if id, _ := entry["request_id"].(string); id == "" {
				t.Error("expected request_id to be logged")
			}
		})
	}
}
