// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are package-level and registered through promauto at init time;
the HTTP layer exposes them at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Queue metrics:
  - bridge_queue_depth: rows per queue and state (gauge)
    Labels: queue (inbox, outbox), state

Router loop metrics:
  - bridge_messages_processed_total: finished inbox messages (counter)
    Labels: outcome (done, failed)
  - bridge_commands_routed_total: dispatched commands (counter)
    Labels: channel (esp-plc, vj3350, vj6530, raspi)
  - bridge_replies_total: produced reply lines (counter)
    Labels: kind (value, ack, nak)
  - bridge_message_processing_duration_seconds: claim-to-commit latency (histogram)

Sender loop metrics:
  - bridge_sends_total: delivery attempts (counter)
    Labels: outcome (done, retry, permanent)
  - bridge_send_duration_seconds: single attempt latency (histogram)
  - bridge_delivery_attempts: attempts until a terminal state (histogram)
  - bridge_sender_gated_polls_total: polls skipped while the peer is not up (counter)

Ingress metrics:
  - bridge_ingress_messages_total: ingress deliveries (counter)
    Labels: result (stored, duplicate, unauthorized, rejected)

Watchdog metrics:
  - bridge_watchdog_up: peer liveness, 1 only in the up state (gauge)
  - bridge_watchdog_transitions_total: state changes (counter)
    Labels: from_state, to_state
  - bridge_watchdog_probes_total: probe rounds (counter)
    Labels: result (pass, fail)

Circuit breaker metrics (live device adapters):
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total, circuit_breaker_consecutive_failures,
    circuit_breaker_state_transitions_total

HTTP API metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

System metrics:
  - app_info: version and Go runtime labels (gauge)
  - app_uptime_seconds

# Usage

Most call sites go through the Record* helpers so label values stay
consistent:

	metrics.RecordMessageProcessed("done", time.Since(start))
	metrics.RecordSend("retry", attempts, elapsed)
	metrics.SetQueueDepth("outbox", "pending", counts.OutboxPending)

Counters only ever increase; rates belong in the query layer (PromQL rate()).
*/
package metrics
