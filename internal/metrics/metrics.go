// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelview_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelview_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// WebSocket Gateway Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelview_ws_connections_active",
			Help: "Current number of connected sessions",
		},
	)

	WSRoomMemberships = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelview_ws_room_memberships",
			Help: "Current number of session-to-room memberships",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_ws_messages_sent_total",
			Help: "Total number of messages queued to sessions",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_ws_messages_received_total",
			Help: "Total number of messages received from sessions",
		},
		[]string{"type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_ws_errors_total",
			Help: "Total number of gateway errors",
		},
		[]string{"error_type"},
	)

	WSFanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_ws_fanout_deliveries_total",
			Help: "Per-session outcomes of projectUpdate fan-out",
		},
		[]string{"result"}, // delivered, excluded, dropped
	)

	// Event Bus Metrics
	BusPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_bus_publishes_total",
			Help: "Total number of change notifications published",
		},
		[]string{"kind"},
	)

	BusHandlerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelview_bus_handler_panics_total",
			Help: "Total number of recovered subscriber panics",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelview_store_operation_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_store_errors_total",
			Help: "Total number of failed persistence operations",
		},
		[]string{"backend", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modelview_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_circuit_breaker_requests_total",
			Help: "Requests passed through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Mutation Pipeline Metrics
	PipelineWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_pipeline_writes_total",
			Help: "Network writes issued by the mutation pipeline",
		},
		[]string{"field", "result"},
	)

	PipelineCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_pipeline_coalesced_edits_total",
			Help: "Continuous edits superseded before their quiet period elapsed",
		},
		[]string{"field"},
	)

	PipelineRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelview_pipeline_rollbacks_total",
			Help: "Optimistic updates reverted after a failed write",
		},
		[]string{"field"},
	)

	// Spatial Resolver Metrics
	ResolverScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelview_resolver_scans_total",
			Help: "Total number of nearest-vertex scans",
		},
	)

	ResolverScanVertices = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelview_resolver_scan_vertices",
			Help:    "Number of candidate vertices examined per scan",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		},
	)
)

// Fan-out result labels.
const (
	FanoutDelivered = "delivered"
	FanoutExcluded  = "excluded"
	FanoutDropped   = "dropped"
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordFanout adds the outcome counts of one fan-out pass.
func RecordFanout(delivered, excluded, dropped int) {
	if delivered > 0 {
		WSFanoutDeliveries.WithLabelValues(FanoutDelivered).Add(float64(delivered))
	}
	if excluded > 0 {
		WSFanoutDeliveries.WithLabelValues(FanoutExcluded).Add(float64(excluded))
	}
	if dropped > 0 {
		WSFanoutDeliveries.WithLabelValues(FanoutDropped).Add(float64(dropped))
	}
}

// RecordStoreOp records one persistence call. Not-found results are not
// counted as errors; they are answers.
func RecordStoreOp(backend, operation string, duration time.Duration, err error, notFound ...error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err == nil {
		return
	}
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			return
		}
	}
	StoreErrors.WithLabelValues(backend, operation).Inc()
}

// RecordPipelineWrite records the outcome of a pipeline network write.
func RecordPipelineWrite(field string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		PipelineRollbacks.WithLabelValues(field).Inc()
	}
	PipelineWrites.WithLabelValues(field, result).Inc()
}

// RecordResolverScan records one nearest-vertex scan over n candidates.
func RecordResolverScan(n int) {
	ResolverScans.Inc()
	ResolverScanVertices.Observe(float64(n))
}
