package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordTransitionCounts(t *testing.T) {
	m := New()
	m.RecordTransition("email", "verify")
	m.RecordTransition("email", "verify")
	m.RecordTransition("verify", "payment")

	require.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("email", "verify")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("verify", "payment")))
}

func TestObserveBackendAndHandler(t *testing.T) {
	m := New()
	m.ObserveBackend("/auth/send-code", "ok", 120*time.Millisecond)
	m.RecordStepError("", "server")

	require.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("/auth/send-code", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.stepErrors.WithLabelValues("unknown", "server")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "jcweb_backend_requests_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordTransition("a", "b")
		m.RecordStepError("a", "b")
		m.ObserveBackend("x", "ok", time.Second)
		m.RecordRateLimited("/x")
	})
	require.Nil(t, m.Registry())
}

func TestSanitizeLabelTruncates(t *testing.T) {
	got := sanitizeLabel(strings.Repeat("a b", 40))
	require.Len(t, got, maxLabelLen)
	require.NotContains(t, got, " ")
}
