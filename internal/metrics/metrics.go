// Package metrics exposes Prometheus instrumentation for the audit engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service registers.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	AuditsTotal   *prometheus.CounterVec
	AuditDuration prometheus.Histogram
	ResearchPass  *prometheus.CounterVec
	ModelCalls    *prometheus.HistogramVec
	Captures      *prometheus.CounterVec
	JobsQueued    prometheus.Gauge
}

// New creates the metric set on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_engine_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_engine_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		AuditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_engine_audits_total",
			Help: "Completed audit runs by outcome (completed, failed, fallback).",
		}, []string{"outcome"}),

		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audit_engine_audit_duration_seconds",
			Help:    "End-to-end audit run duration.",
			Buckets: []float64{30, 60, 120, 240, 480, 900, 1800},
		}),

		ResearchPass: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_engine_research_passes_total",
			Help: "Research passes by group and result.",
		}, []string{"group", "result"}),

		ModelCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_engine_model_call_duration_seconds",
			Help:    "Remote model call latency by client.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240, 480},
		}, []string{"client"}),

		Captures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_engine_captures_total",
			Help: "Capture dispatch results (resolved, failed, skipped).",
		}, []string{"result"}),

		JobsQueued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audit_engine_jobs_queued",
			Help: "Audit jobs waiting in the processor queue.",
		}),
	}
}

// Label values for the ResearchPass and Captures counters.
const (
	PassSuccess = "success"
	PassFailure = "failure"

	CaptureResolved = "resolved"
	CaptureFailed   = "failed"
	CaptureSkipped  = "skipped"
)

// ObserveModelCall records the latency of one remote inference call. Safe on
// a nil receiver so clients built without metrics stay quiet.
func (m *Metrics) ObserveModelCall(client string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(client).Observe(d.Seconds())
}

// CountResearchPass records one research pass outcome.
func (m *Metrics) CountResearchPass(group, result string) {
	if m == nil {
		return
	}
	m.ResearchPass.WithLabelValues(group, result).Inc()
}

// CountCapture records one capture dispatch outcome.
func (m *Metrics) CountCapture(result string) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues(result).Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request counts and latency per route. The route template
// is used instead of the raw path to bound cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequests.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
