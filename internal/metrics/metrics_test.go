package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("live", "", 12, 200*time.Millisecond)
	m.ObserveFetch("sample", "transport", 5, time.Second)
	m.ObserveFetch("sample", "transport", 5, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("live", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fetches.WithLabelValues("sample", "transport")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Records))
}

func TestObserveAttempt(t *testing.T) {
	m := New()

	m.ObserveAttempt(1, errors.New("timeout"))
	m.ObserveAttempt(2, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveFetch("live", "", 1, time.Millisecond)
		m.ObserveAttempt(1, nil)
		m.ObserveRequest("/api/users", 200)
		m.RegisterStoredIDs(func() int { return 0 })
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RegisterStoredIDs(func() int { return 7 })
	m.ObserveRequest("/api/users", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "roster_stored_ids 7")
	assert.True(t, strings.Contains(body, `roster_http_requests_total{code="200",route="/api/users"} 1`))
}
