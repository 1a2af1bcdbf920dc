package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Store metrics
	PagesFetched  *prometheus.CounterVec
	RowsFetched   *prometheus.CounterVec
	DBConnections prometheus.Gauge

	// Business metrics
	BulkItems        *prometheus.CounterVec
	PaymentsRecorded prometheus.Counter
	CasesAutoClosed  prometheus.Counter
	ReportsGenerated *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		PagesFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_pages_fetched_total",
				Help: "Total number of paginated store requests",
			},
			[]string{"source", "outcome"}, // outcome: ok, error
		),
		RowsFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_rows_fetched_total",
				Help: "Total number of rows read through paginated requests",
			},
			[]string{"source"},
		),
		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		}),

		BulkItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulk_items_processed_total",
				Help: "Total number of cases processed by bulk operations",
			},
			[]string{"operation", "outcome"}, // outcome: succeeded, failed
		),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of payments recorded",
		}),
		CasesAutoClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "cases_auto_closed_total",
			Help: "Total number of cases closed by a full payment",
		}),
		ReportsGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_generated_total",
				Help: "Total number of reports generated",
			},
			[]string{"report", "format"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/teams/:id/cases

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return nil
		}
	}
}

// ObservePage records one paginated store request.
func (m *Metrics) ObservePage(source string, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PagesFetched.WithLabelValues(source, outcome).Inc()
	m.RowsFetched.WithLabelValues(source).Add(float64(rows))
}

// RecordBulkItem counts one finished bulk operation item.
func (m *Metrics) RecordBulkItem(operation string, succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	m.BulkItems.WithLabelValues(operation, outcome).Inc()
}

// RecordPayment counts a recorded payment and whether it closed the case.
func (m *Metrics) RecordPayment(autoClosed bool) {
	m.PaymentsRecorded.Inc()
	if autoClosed {
		m.CasesAutoClosed.Inc()
	}
}

// RecordReport counts a generated report.
func (m *Metrics) RecordReport(report, format string) {
	m.ReportsGenerated.WithLabelValues(report, format).Inc()
}

// UpdateDBConnections updates the open database connections gauge
func (m *Metrics) UpdateDBConnections(count int) {
	m.DBConnections.Set(float64(count))
}
