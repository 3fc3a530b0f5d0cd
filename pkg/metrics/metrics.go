package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NodesConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docklord_nodes_connected",
			Help: "Number of nodes currently present in the Coordinator's presence registry",
		},
	)

	PendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docklord_pending_requests",
			Help: "Number of REST/WebSocket requests currently awaiting a NodeResponse",
		},
	)

	CommandBusDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docklord_command_bus_drops_total",
			Help: "Total number of command bus publishes dropped because a subscriber's buffer was full, at the bus subscription or the per-session outbound channel",
		},
	)

	RESTRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docklord_rest_requests_total",
			Help: "Total number of REST façade requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	RESTRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docklord_rest_request_duration_seconds",
			Help:    "REST façade request duration in seconds by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	WSObserversConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docklord_ws_observers_connected",
			Help: "Number of currently connected /observe-containers WebSocket clients",
		},
	)
)

func init() {
	prometheus.MustRegister(NodesConnected)
	prometheus.MustRegister(PendingRequests)
	prometheus.MustRegister(CommandBusDropsTotal)
	prometheus.MustRegister(RESTRequestsTotal)
	prometheus.MustRegister(RESTRequestDuration)
	prometheus.MustRegister(WSObserversConnected)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
