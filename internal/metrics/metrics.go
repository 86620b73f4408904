// Package metrics exposes Prometheus collectors for the flinkview service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	jobsFound                  prometheus.Gauge
	jobListErrorsTotal         prometheus.Counter
	jobCacheEventsTotal        *prometheus.CounterVec
	proxyRequestsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		jobsFound = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flinkview_jobs_found",
				Help: "Number of FlinkDeployments found by the last successful listing.",
			},
		)

		jobListErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flinkview_job_list_errors_total",
				Help: "Total number of failed FlinkDeployment listings.",
			},
		)

		jobCacheEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flinkview_job_cache_events_total",
				Help: "Job cache lookups, labeled by outcome (hit or miss).",
			},
			[]string{"outcome"},
		)

		proxyRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flinkview_proxy_requests_total",
				Help: "Total proxied requests, labeled by application and code.",
			},
			[]string{"app", "code"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveJobsFound records the size of a successful listing.
func ObserveJobsFound(count int) {
	jobsFound.Set(float64(count))
}

// ObserveJobListError increments the failed-listing counter.
func ObserveJobListError() {
	jobListErrorsTotal.Inc()
}

// ObserveJobCache records a cache lookup outcome.
func ObserveJobCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	jobCacheEventsTotal.WithLabelValues(outcome).Inc()
}

// ObserveProxyRequest increments the proxied request counter.
func ObserveProxyRequest(app string, code int) {
	proxyRequestsTotal.WithLabelValues(app, strconv.Itoa(code)).Inc()
}
