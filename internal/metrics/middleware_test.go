package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsDurationCountAndBytes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpResponseBytes.WithLabelValues("GET", "/api/v1/stats"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)

	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/stats", "200")), 1.0)
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
	assert.InDelta(t, before+2, testutil.ToFloat64(httpResponseBytes.WithLabelValues("GET", "/api/v1/stats")), 0)
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/error", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/ok", "200"},
		{"/bad", "400"},
		{"/error", "500"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))
			assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status)), 1.0)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unknown", normalizePath(""))
	assert.Equal(t, "/api/v1/retrieve", normalizePath("/api/v1/retrieve"))
}

func TestSetCapability(t *testing.T) {
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()

	SetCapability("severity_classifier", true)
	assert.InDelta(t, 1.0, testutil.ToFloat64(CapabilityAvailable.WithLabelValues("severity_classifier")), 0)

	SetCapability("severity_classifier", false)
	assert.InDelta(t, 0.0, testutil.ToFloat64(CapabilityAvailable.WithLabelValues("severity_classifier")), 0)
}
