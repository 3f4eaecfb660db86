package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so tests can omit metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	assetLookups  *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	images        *prometheus.CounterVec
	rateLimits    *prometheus.CounterVec
	tasks         *prometheus.CounterVec
	taskDurations *prometheus.HistogramVec
	authChecks    *prometheus.CounterVec
}

// NewMetrics registers the service collectors plus Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		assetLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vip_asset_lookups_total",
			Help: "Lead asset cache lookups by result (hit or miss).",
		}, []string{"result"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vip_generation_fallbacks_total",
			Help: "Generation steps that degraded to a fallback, by stage.",
		}, []string{"stage"}),
		images: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vip_images_total",
			Help: "Product image outcomes (generated, fallback, persisted, upload_failed).",
		}, []string{"outcome"}),
		rateLimits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vip_rate_limit_decisions_total",
			Help: "Daily generation quota decisions (allowed, denied, fail_open).",
		}, []string{"decision"}),
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "background_tasks_total",
			Help: "Detached background tasks by name and outcome.",
		}, []string{"task", "outcome"}),
		taskDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "background_task_duration_seconds",
			Help:    "Detached background task duration.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		}, []string{"task"}),
		authChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_verifications_total",
			Help: "Token verifications by kind and reason.",
		}, []string{"kind", "reason"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one completed request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveAssetLookup records a cache hit or miss.
func (m *Metrics) ObserveAssetLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.assetLookups.WithLabelValues(result).Inc()
}

// ObserveFallback records a generation stage that degraded to its default.
func (m *Metrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

// ObserveImages adds count to an image outcome.
func (m *Metrics) ObserveImages(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.images.WithLabelValues(outcome).Add(float64(count))
}

// ObserveRateLimit records a quota decision.
func (m *Metrics) ObserveRateLimit(decision string) {
	if m == nil {
		return
	}
	m.rateLimits.WithLabelValues(decision).Inc()
}

// ObserveTask records a finished background task.
func (m *Metrics) ObserveTask(task, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(task, outcome).Inc()
	m.taskDurations.WithLabelValues(task).Observe(elapsed.Seconds())
}

// RecordVerification counts a token verification outcome. It satisfies auth.MetricsRecorder.
func (m *Metrics) RecordVerification(_ context.Context, kind string, _ bool, reason string, _ time.Duration) {
	if m == nil {
		return
	}
	m.authChecks.WithLabelValues(kind, reason).Inc()
}
