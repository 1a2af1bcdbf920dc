package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePage(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObservePage("cases", 1000, nil)
	m.ObservePage("cases", 500, nil)
	m.ObservePage("cases", 0, errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("cases", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("cases", "error")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.RowsFetched.WithLabelValues("cases")))
}

func TestBusinessCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordBulkItem("assign", true)
	m.RecordBulkItem("assign", false)
	m.RecordPayment(false)
	m.RecordPayment(true)
	m.RecordReport("payments", "csv")
	m.UpdateDBConnections(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkItems.WithLabelValues("assign", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkItems.WithLabelValues("assign", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CasesAutoClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsGenerated.WithLabelValues("payments", "csv")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.DBConnections))
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/teams/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/teams/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/broken", "400")))
}
