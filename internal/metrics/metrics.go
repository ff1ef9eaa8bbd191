// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the bridge:
// - durable queue depths (inbox/outbox by state)
// - router loop throughput and command routing
// - sender loop delivery outcomes and retry pressure
// - watchdog state and transitions
// - device circuit breakers
// - HTTP API latency and throughput

var (
	// Queue Metrics
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_queue_depth",
			Help: "Current number of rows per queue and state",
		},
		[]string{"queue", "state"}, // queue: "inbox", "outbox"
	)

	// Router Loop Metrics
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_messages_processed_total",
			Help: "Total number of inbox messages finished by the router loop",
		},
		[]string{"outcome"}, // "done", "failed"
	)

	CommandsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_commands_routed_total",
			Help: "Total number of parsed commands dispatched per device channel",
		},
		[]string{"channel"},
	)

	Replies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_replies_total",
			Help: "Total number of reply lines produced",
		},
		[]string{"kind"}, // "value", "ack", "nak"
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_message_processing_duration_seconds",
			Help:    "Wall time from inbox claim to commit for one message",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Sender Loop Metrics
	Sends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_sends_total",
			Help: "Total number of outbox delivery attempts by outcome",
		},
		[]string{"outcome"}, // "done", "retry", "permanent"
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_send_duration_seconds",
			Help:    "Duration of one HTTP delivery attempt to the peer",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	DeliveryAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_delivery_attempts",
			Help:    "Number of attempts a job needed to reach a terminal state",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	SenderGated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_sender_gated_polls_total",
			Help: "Total number of sender polls skipped because the peer is not up",
		},
	)

	// Ingress Metrics
	IngressMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_ingress_messages_total",
			Help: "Total number of ingress deliveries by result",
		},
		[]string{"result"}, // "stored", "duplicate", "unauthorized", "rejected"
	)

	// Watchdog Metrics
	WatchdogUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_watchdog_up",
			Help: "Peer liveness as seen by the watchdog (1=up, 0=down or unknown)",
		},
	)

	WatchdogTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_watchdog_transitions_total",
			Help: "Total number of watchdog state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	WatchdogProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_watchdog_probes_total",
			Help: "Total number of watchdog probe rounds by result",
		},
		[]string{"result"}, // "pass", "fail"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// SetQueueDepth updates one queue/state gauge. The queue stats service calls
// this for every state it counts.
func SetQueueDepth(queue, state string, count int64) {
	QueueDepth.WithLabelValues(queue, state).Set(float64(count))
}

// RecordMessageProcessed records one finished inbox message.
func RecordMessageProcessed(outcome string, duration time.Duration) {
	MessagesProcessed.WithLabelValues(outcome).Inc()
	ProcessingDuration.Observe(duration.Seconds())
}

// RecordCommand records a command dispatched to a channel and the kind of
// reply it produced ("value", "ack" or "nak").
func RecordCommand(channel, replyKind string) {
	CommandsRouted.WithLabelValues(channel).Inc()
	Replies.WithLabelValues(replyKind).Inc()
}

// RecordSend records one delivery attempt. attempts is only observed for
// terminal outcomes (retry pressure shows up in bridge_sends_total instead).
func RecordSend(outcome string, attempts int, duration time.Duration) {
	Sends.WithLabelValues(outcome).Inc()
	SendDuration.Observe(duration.Seconds())
	if outcome != "retry" {
		DeliveryAttempts.Observe(float64(attempts))
	}
}

// RecordIngress records one ingress delivery result.
func RecordIngress(result string) {
	IngressMessages.WithLabelValues(result).Inc()
}

// RecordWatchdogProbe records a probe round and refreshes the up gauge.
func RecordWatchdogProbe(pass, up bool) {
	result := "fail"
	if pass {
		result = "pass"
	}
	WatchdogProbes.WithLabelValues(result).Inc()
	if up {
		WatchdogUp.Set(1)
	} else {
		WatchdogUp.Set(0)
	}
}

// RecordWatchdogTransition records a state change.
func RecordWatchdogTransition(from, to string) {
	WatchdogTransitions.WithLabelValues(from, to).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
