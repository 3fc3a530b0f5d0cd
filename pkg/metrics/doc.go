/*
Package metrics provides Prometheus metrics collection and exposition for the
Coordinator.

Six metrics cover the routing-engine components defined in pkg/coordinator:
presence, pending requests, the command bus, and the REST and WebSocket
façades. All are registered at package init and served over HTTP at
/metrics, alongside /healthz (see health.go).

# Metrics Catalog

docklord_nodes_connected:
  - Type: Gauge
  - Description: Number of nodes currently present in the Coordinator's presence registry

docklord_pending_requests:
  - Type: Gauge
  - Description: Number of REST/WebSocket requests currently awaiting a NodeResponse

docklord_command_bus_drops_total:
  - Type: Counter
  - Description: Command bus publishes dropped because a subscriber's buffer was full, at the bus subscription or the per-session outbound channel

docklord_rest_requests_total{endpoint, outcome}:
  - Type: Counter
  - Labels: endpoint, outcome
  - Description: REST façade requests by endpoint and outcome

docklord_rest_request_duration_seconds{endpoint}:
  - Type: Histogram
  - Labels: endpoint
  - Description: REST façade request duration in seconds

docklord_ws_observers_connected:
  - Type: Gauge
  - Description: Connected /observe-containers WebSocket clients

# Usage

Update metrics directly from the package that owns the underlying state
rather than polling it from elsewhere:

	metrics.NodesConnected.Set(float64(presence.Count()))
	metrics.CommandBusDropsTotal.Inc()
	metrics.RESTRequestsTotal.WithLabelValues("get_containers", "ok").Inc()

Timing a REST handler with the Timer helper:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RESTRequestDuration, "get_containers")

# Health

health.go tracks per-component readiness (grpc, http) independently of the
Prometheus metrics above and is exposed via /healthz as a simple aggregate
status, so orchestrators can probe liveness without scraping metrics.
*/
package metrics
