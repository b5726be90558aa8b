package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.SaleCompleted("CASH", "B02", 118)
	m.SaleCompleted("CASH", "B02", 59)
	m.NcfIssued("B02", 98)
	m.SaleCancelled()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.salesTotal.WithLabelValues("CASH", "B02")))
	assert.Equal(t, 177.0, testutil.ToFloat64(m.salesAmount.WithLabelValues("CASH")))
	assert.Equal(t, 98.0, testutil.ToFloat64(m.ncfRemaining.WithLabelValues("B02")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.salesCancelled))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/v1/products", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pos_http_requests_total{method="GET",route="/api/v1/products",status="200"} 1`)
}
