package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SweepRuns           = prometheus.NewCounter(prometheus.CounterOpts{Name: "postflow_sweeps_total", Help: "Scheduler sweeps started"})
	SweepDuration       = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "postflow_sweep_duration_seconds", Help: "Wall time of a scheduler sweep", Buckets: prometheus.DefBuckets})
	PostsPublished      = prometheus.NewCounter(prometheus.CounterOpts{Name: "postflow_posts_published_total", Help: "Posts published to the platform"})
	PostsFailed         = prometheus.NewCounter(prometheus.CounterOpts{Name: "postflow_posts_failed_total", Help: "Posts recorded as failed"})
	PostsSkipped        = prometheus.NewCounter(prometheus.CounterOpts{Name: "postflow_posts_skipped_total", Help: "Due posts claimed by another worker"})
	MediaUploadFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "media_upload_failures_total", Help: "Photo uploads skipped after a failure"})
	StaleClaimsFailed   = prometheus.NewCounter(prometheus.CounterOpts{Name: "postflow_stale_claims_total", Help: "Interrupted publish attempts marked failed"})
	InFlightGauge       = prometheus.NewGauge(prometheus.GaugeOpts{Name: "postflow_publish_inflight", Help: "Posts currently being published"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SweepRuns,
			SweepDuration,
			PostsPublished,
			PostsFailed,
			PostsSkipped,
			MediaUploadFailures,
			StaleClaimsFailed,
			InFlightGauge,
		)
	})
	return promhttp.Handler()
}
