package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestImportCompleted(t *testing.T) {
	m := newTestMetrics()

	m.ImportCompleted("mission", 2, 1)
	m.ImportCompleted("mission", 1, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importsTotal.WithLabelValues("mission")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importLinked.WithLabelValues("mission")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importUnresolved.WithLabelValues("mission")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.importsTotal.WithLabelValues("character")))
}

func TestImportFailed(t *testing.T) {
	m := newTestMetrics()

	m.ImportFailed("character", "validate")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.importFailures.WithLabelValues("character", "validate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.importFailures.WithLabelValues("character", "extract")))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := newTestMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/characters/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/characters/a", "/characters/b", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/characters/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRequests))
}

func TestRecordRequest_Histogram(t *testing.T) {
	m := newTestMetrics()

	m.RecordRequest("POST", "/api/v1/import/missions", 201, 120*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestHandler_ServesTextFormat(t *testing.T) {
	m := newTestMetrics()
	m.ImportCompleted("mission", 1, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `guildhall_imports_total{kind="mission"} 1`), body)
}

func TestNew_IncludesRuntimeCollectors(t *testing.T) {
	m := New()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
