package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the merge service.
type Metrics struct {
	registry          *prometheus.Registry
	mergesTotal       prometheus.Counter
	mergeFailures     *prometheus.CounterVec
	audioDegradeTotal prometheus.Counter
	mergesInFlight    prometheus.Gauge
	mergeDuration     prometheus.Histogram
}

// New creates and registers Prometheus metrics for the merge pipeline.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	mergesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "merge_requests_total",
		Help: "Total number of merge requests accepted",
	})
	mergeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "merge_failures_total",
		Help: "Total number of failed merge requests by failure kind",
	}, []string{"kind"})
	audioDegradeTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "merge_audio_degrades_total",
		Help: "Total number of merges delivered video-only after an audio failure",
	})
	mergesInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "merge_in_flight",
		Help: "Number of merge requests currently being processed",
	})
	mergeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "merge_duration_seconds",
		Help:    "Wall-clock time spent processing a merge request",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	registry.MustRegister(
		mergesTotal,
		mergeFailures,
		audioDegradeTotal,
		mergesInFlight,
		mergeDuration,
	)

	return &Metrics{
		registry:          registry,
		mergesTotal:       mergesTotal,
		mergeFailures:     mergeFailures,
		audioDegradeTotal: audioDegradeTotal,
		mergesInFlight:    mergesInFlight,
		mergeDuration:     mergeDuration,
	}
}

// IncMerges increments the accepted merge counter.
func (m *Metrics) IncMerges() {
	m.mergesTotal.Inc()
}

// IncFailures increments the failure counter for the given kind.
func (m *Metrics) IncFailures(kind string) {
	m.mergeFailures.WithLabelValues(kind).Inc()
}

// IncAudioDegrades increments the video-only degrade counter.
func (m *Metrics) IncAudioDegrades() {
	m.audioDegradeTotal.Inc()
}

// MergeStarted marks one more merge in flight.
func (m *Metrics) MergeStarted() {
	m.mergesInFlight.Inc()
}

// MergeFinished marks one merge done and records its duration.
func (m *Metrics) MergeFinished(seconds float64) {
	m.mergesInFlight.Dec()
	m.mergeDuration.Observe(seconds)
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
