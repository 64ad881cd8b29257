package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"luminapos/internal/domain"
	"luminapos/internal/metrics"
	"luminapos/internal/persistence"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RemoteFailure("list products")
		m.CacheFailure("list products")
		m.ModeChanged(persistence.Offline)
		m.Validation(domain.ValidationResult{Valid: true})
		m.AdminLogin(false)
	})
}

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.RemoteFailure("list products")
	m.RemoteFailure("list products")
	m.ModeChanged(persistence.Offline)
	m.Validation(domain.Rejected(domain.ReasonKeyExpired))
	m.Validation(domain.ValidationResult{Valid: true})

	n, err := testutil.GatherAndCount(m.Registry(), "luminapos_remote_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = testutil.GatherAndCount(m.Registry(), "luminapos_license_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "luminapos_offline 1")
	assert.Contains(t, rec.Body.String(), `luminapos_remote_failures_total{op="list products"} 2`)
}
