package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// domain batches.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	invoicesCreated prometheus.Counter
	payrollCreated  prometheus.Counter
	paymentsApplied *prometheus.CounterVec
	loansOpened     prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_evaluations_total",
		Help: "Grade evaluations computed, labelled by resulting status",
	}, []string{"status"})

	invoicesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tuition_invoices_created_total",
		Help: "Invoices created by the monthly generation batch",
	})

	payrollCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payroll_entries_created_total",
		Help: "Payroll entries created by the monthly generation batch",
	})

	paymentsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_applied_total",
		Help: "Payments applied, labelled by kind (tuition, payroll)",
	}, []string{"kind"})

	loansOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "library_loans_opened_total",
		Help: "Library loans opened",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, evaluations, invoicesCreated, payrollCreated, paymentsApplied, loansOpened, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		evaluations:     evaluations,
		invoicesCreated: invoicesCreated,
		payrollCreated:  payrollCreated,
		paymentsApplied: paymentsApplied,
		loansOpened:     loansOpened,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// IncEvaluations counts one grade evaluation by resulting status.
func (m *MetricsService) IncEvaluations(status string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(status).Inc()
}

// AddInvoicesGenerated counts invoices created by a generation run.
func (m *MetricsService) AddInvoicesGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesCreated.Add(float64(n))
}

// AddPayrollGenerated counts payroll entries created by a generation run.
func (m *MetricsService) AddPayrollGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.payrollCreated.Add(float64(n))
}

// IncPaymentsApplied counts one settled payment by kind.
func (m *MetricsService) IncPaymentsApplied(kind string) {
	if m == nil {
		return
	}
	m.paymentsApplied.WithLabelValues(kind).Inc()
}

// IncLoansOpened counts one opened library loan.
func (m *MetricsService) IncLoansOpened() {
	if m == nil {
		return
	}
	m.loansOpened.Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
