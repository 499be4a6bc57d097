package metrics

import (
	"time"
)

// RecordFrame records one layout frame computation. Satisfies the engine's
// FrameRecorder interface.
func (r *Registry) RecordFrame(strategy, status string, duration time.Duration, nodes, components, communities, stateBytes int) {
	if strategy == "" {
		strategy = "unknown"
	}
	r.FramesTotal.WithLabelValues(strategy, status).Inc()
	if status != "ok" {
		return
	}
	r.FrameDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	r.FrameNodes.Observe(float64(nodes))
	r.FrameComponents.Observe(float64(components))
	r.FrameCommunities.Observe(float64(communities))
	r.FrameStateBytes.Observe(float64(stateBytes))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncHTTPRequestsInFlight increments the in-flight request gauge
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordStoreOperation records a state store operation
func (r *Registry) RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordPublish records one frame broadcast attempt
func (r *Registry) RecordPublish(err error) {
	if err != nil {
		r.PublishErrorsTotal.Inc()
		return
	}
	r.PublishedFramesTotal.Inc()
}
