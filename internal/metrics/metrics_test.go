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

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()

	m.AuthEvent("sign_in", "success")
	m.AuthEvent("sign_in", "success")
	m.MessageSubmitted("not_accepting")
	m.SuggestionServed("fallback")
	m.AccountsPurged(3)
	m.AccountsPurged(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("sign_in", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesSubmitted.WithLabelValues("not_accepting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suggestionsServed.WithLabelValues("fallback")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.unverifiedPurged))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.AuthEvent("sign_up", "success")
		m.MessageSubmitted("accepted")
		m.SuggestionServed("generated")
		m.AccountsPurged(1)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Delete("/api/delete-message/{messageID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/delete-message/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodDelete, "/api/delete-message/{messageID}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anonify_http_requests_total")
}
