package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthOutcome("login", OutcomeSuccess)
	c.RecordAuthOutcome("login", OutcomeBadCredentials)
	c.RecordAuthOutcome("login", OutcomeBadCredentials)
	c.RecordResetTokensSwept(3)
	c.RecordMailFailure()
	c.RecordHTTPRequest(http.MethodPost, http.StatusConflict, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.authOutcomes.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.authOutcomes.WithLabelValues("login", OutcomeBadCredentials)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.resetSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mailFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "409")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthOutcome("signup", OutcomeConflict)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mindmatters_auth_outcomes_total{action="signup",outcome="conflict"} 1`)
}
