package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/edi-sejahtera/sejahtera/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestHandlerExposesJobAndRuntimeMetrics(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, jobmetrics.NewMetrics(m.Registerer()).Track("backup:snapshot").End(nil))

	body := scrape(t, m)
	assert.Contains(t, body, "sejahtera_jobs_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rc := chi.NewRouteContext()
	rc.RoutePatterns = append(rc.RoutePatterns, "/api/items/{id}")
	req := httptest.NewRequest(http.MethodGet, "/api/items/3", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/items/{id}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Contains(t, scrape(t, m), `sejahtera_http_request_duration_seconds_bucket{route="/api/items/{id}"`)
}

func TestMiddlewareDefaultsToOKAndUnknownRoute(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(unknownRoute, "200")))
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.StockRejected("insufficient")
	m.StockRejected("insufficient")
	m.TxRetried("update")
	m.DocumentServed("invoice", "cache")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stockRejections.WithLabelValues("insufficient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txRetries.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("invoice", "cache")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.StockRejected("insufficient")
	m.TxRetried("create")
	m.DocumentServed("invoice", "render")

	next := http.NotFoundHandler()
	handler := m.Middleware(next)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
