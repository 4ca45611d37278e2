// Package metrics exposes prometheus collectors for the scrape pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sichef"

// Video outcomes.
const (
	VideoOK            = "ok"
	VideoAcquireFailed = "acquire_failed"
	VideoFiltered      = "filtered"
	VideoNotReview     = "not_review"
)

// Transcription outcomes.
const (
	TranscriptionSkipped     = "skipped"
	TranscriptionTranscribed = "transcribed"
	TranscriptionFailed      = "failed"
)

// Geocode outcomes.
const (
	GeocodeMatched   = "matched"
	GeocodeNoResults = "no_results"
	GeocodeError     = "error"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	VideosTotal         *prometheus.CounterVec
	TranscriptionsTotal *prometheus.CounterVec
	GeocodesTotal       *prometheus.CounterVec
	RecordsTotal        prometheus.Counter
	VideoDuration       prometheus.Histogram
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		VideosTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "videos_total",
			Help:      "Videos processed, by outcome",
		}, []string{"outcome"}),
		TranscriptionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transcriptions_total",
			Help:      "Transcription attempts, by outcome",
		}, []string{"outcome"}),
		GeocodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "lookups_total",
			Help:      "Geocode lookups, by outcome",
		}, []string{"outcome"}),
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Records produced by the pipeline",
		}),
		VideoDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "video_duration_seconds",
			Help:      "Per-video pipeline duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Video(outcome string) {
	if m == nil {
		return
	}
	m.VideosTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transcription(outcome string) {
	if m == nil {
		return
	}
	m.TranscriptionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Geocode(outcome string) {
	if m == nil {
		return
	}
	m.GeocodesTotal.WithLabelValues(outcome).Inc()
}

// Records adds n produced records.
func (m *Metrics) Records(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// ObserveVideo records the time since start.
func (m *Metrics) ObserveVideo(start time.Time) {
	if m == nil {
		return
	}
	m.VideoDuration.Observe(time.Since(start).Seconds())
}
