// Package metrics wraps the Prometheus collectors the bridge exposes at
// /metrics: active instance count, frame and byte throughput, accept
// errors, and dropped broadcasts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors the bridge exposes at /metrics.
// It satisfies internal/connection.Metrics.
type Registry struct {
	instancesActive prometheus.Gauge
	frames          *prometheus.CounterVec
	bytesTotal      prometheus.Counter
	acceptErrors    prometheus.Counter
	broadcastDrops  prometheus.Counter
}

// NewRegistry creates and registers the Prometheus collectors.
func NewRegistry() *Registry {
	return &Registry{
		instancesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "octoshim_instances_active",
			Help: "Number of connected local client instances.",
		}),
		frames: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "octoshim_frames_total",
			Help: "Total number of protocol frames processed, by direction.",
		}, []string{"direction"}),
		bytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "octoshim_bytes_total",
			Help: "Total number of payload bytes read from instances.",
		}),
		acceptErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "octoshim_accept_errors_total",
			Help: "Total number of TCP accept errors.",
		}),
		broadcastDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "octoshim_broadcast_dropped_total",
			Help: "Total number of broadcast sends skipped because the target's queue was already closed.",
		}),
	}
}

// ConnectionOpened records a newly registered instance.
func (r *Registry) ConnectionOpened() {
	r.instancesActive.Inc()
}

// ConnectionClosed records a torn-down instance.
func (r *Registry) ConnectionClosed() {
	r.instancesActive.Dec()
}

// FrameRead records one inbound frame of the given payload size.
func (r *Registry) FrameRead(bytes int) {
	r.frames.WithLabelValues("read").Inc()
	r.bytesTotal.Add(float64(bytes))
}

// FrameWritten records one outbound frame.
func (r *Registry) FrameWritten() {
	r.frames.WithLabelValues("write").Inc()
}

// AcceptError records a listener-level accept failure.
func (r *Registry) AcceptError() {
	r.acceptErrors.Inc()
}

// BroadcastDropped records n fan-out sends skipped due to a closed queue.
func (r *Registry) BroadcastDropped(n int) {
	r.broadcastDrops.Add(float64(n))
}

// Handler returns an HTTP handler exposing Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
