package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFrameMetrics() {
	r.FramesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphlapse_frames_total",
			Help: "Total number of layout frames computed",
		},
		[]string{"strategy", "status"},
	)

	r.FrameDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphlapse_frame_duration_seconds",
			Help:    "Layout frame computation latency in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	r.FrameNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphlapse_frame_nodes",
			Help:    "Visible node count per frame",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	r.FrameComponents = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphlapse_frame_components",
			Help:    "Connected component count per frame",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	r.FrameCommunities = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphlapse_frame_communities",
			Help:    "Community count per frame",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	r.FrameStateBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphlapse_frame_state_bytes",
			Help:    "Encoded snapshot size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
}

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphlapse_store_operations_total",
			Help: "Total number of state store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphlapse_store_operation_duration_seconds",
			Help:    "State store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
}

func (r *Registry) initStreamMetrics() {
	r.PublishedFramesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphlapse_published_frames_total",
			Help: "Total number of frames published to the broadcast stream",
		},
	)

	r.PublishErrorsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphlapse_publish_errors_total",
			Help: "Total number of frame publish failures",
		},
	)

	r.SubscribersGauge = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphlapse_stream_subscribers",
			Help: "Current number of in-process frame subscribers",
		},
	)
}
