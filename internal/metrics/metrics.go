package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters exposed on /metrics.
type Metrics struct {
	Captures         prometheus.Counter
	CaptureFailures  prometheus.Counter
	Analyses         *prometheus.CounterVec
	FacesMerged      prometheus.Counter
	MergeFailures    prometheus.Counter
	Uploads          *prometheus.CounterVec
	EventsPublished  prometheus.Counter
	PublishFailures  prometheus.Counter
	PipelineDuration prometheus.Histogram

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Captures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_captures_total",
			Help: "Photos captured from the camera",
		}),
		CaptureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_capture_failures_total",
			Help: "Failed camera captures",
		}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emotioncam_analyses_total",
			Help: "Remote analysis calls by service and outcome",
		}, []string{"service", "outcome"}),
		FacesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_faces_merged_total",
			Help: "Merged face records produced",
		}),
		MergeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_merge_failures_total",
			Help: "Face and emotion sequences that could not be aligned",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emotioncam_uploads_total",
			Help: "Photo uploads to blob storage by outcome",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_events_published_total",
			Help: "Events sent to the device-messaging hub",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emotioncam_publish_failures_total",
			Help: "Events that failed to send",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emotioncam_pipeline_duration_seconds",
			Help:    "Duration of a capture-analyze-report cycle",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}

	m.registry.MustRegister(
		m.Captures,
		m.CaptureFailures,
		m.Analyses,
		m.FacesMerged,
		m.MergeFailures,
		m.Uploads,
		m.EventsPublished,
		m.PublishFailures,
		m.PipelineDuration,
	)

	return m
}

// Handler returns the promhttp handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
