package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/observability"
)

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	metrics := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/exams/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	req := httptest.NewRequest(http.MethodGet, "/exams/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	scrapeRec := httptest.NewRecorder()
	r.ServeHTTP(scrapeRec, scrape)
	require.Equal(t, http.StatusOK, scrapeRec.Code)

	body := scrapeRec.Body.String()
	require.True(t, strings.Contains(body, "examdesk_http_requests_total"))
	require.True(t, strings.Contains(body, `route="/exams/{id}"`))
}

func TestNilMetricsHandlerUnavailable(t *testing.T) {
	var metrics *observability.Metrics

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
