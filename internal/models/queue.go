// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package models

// Inbox message states. A message is claimed by flipping pending -> processing;
// the router loop finishes it as done or failed. Processing rows found at
// startup are crash leftovers and are requeued to pending.
const (
	InboxStatePending    = "pending"
	InboxStateProcessing = "processing"
	InboxStateDone       = "done"
	InboxStateFailed     = "failed"
)

// Outbox job states. Jobs stay pending across retries; they only leave the
// queue through done (2xx from the peer) or failed_permanent (non-retryable
// failure or exhausted retry budget).
const (
	OutboxStatePending         = "pending"
	OutboxStateDone            = "done"
	OutboxStateFailedPermanent = "failed_permanent"
)

// InboxMessage is one accepted delivery from the Microtom host.
//
// Payload is stored verbatim (JSON or plain text); the router loop extracts
// the command text at processing time. IdempotencyKey is empty when the
// caller supplied none; empty keys never deduplicate.
type InboxMessage struct {
	ID             int64  `json:"id"`
	CreatedTS      int64  `json:"created_ts"`
	UpdatedTS      int64  `json:"updated_ts"`
	Source         string `json:"source"`
	Payload        string `json:"payload"`
	IdempotencyKey string `json:"idempotency_key"`
	State          string `json:"state"`
	LastError      string `json:"last_error,omitempty"`
}

// OutboxJob is one durable HTTP delivery owed to the Microtom host.
//
// Headers is a flat string map serialized as JSON in the store; it is sent
// verbatim. IdempotencyKey is the job's own fresh token; CorrelationID
// echoes the originating inbox key so the host can join reply to request.
// RetryCount and NextAttemptTS drive the sender's backoff schedule; claim
// order is (next_attempt_ts, retry_count, created_ts, id) ascending.
type OutboxJob struct {
	ID             int64             `json:"id"`
	CreatedTS      int64             `json:"created_ts"`
	UpdatedTS      int64             `json:"updated_ts"`
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           []byte            `json:"body"`
	IdempotencyKey string            `json:"idempotency_key"`
	CorrelationID  string            `json:"correlation_id"`
	RetryCount     int               `json:"retry_count"`
	NextAttemptTS  int64             `json:"next_attempt_ts"`
	State          string            `json:"state"`
	LastStatus     int               `json:"last_status,omitempty"`
	LastError      string            `json:"last_error,omitempty"`
}

// OutboxJobSpec describes a job to enqueue. The store assigns ID, CreatedTS,
// NextAttemptTS (now) and the initial pending state.
type OutboxJobSpec struct {
	URL            string
	Method         string
	Headers        map[string]string
	Body           []byte
	IdempotencyKey string
	CorrelationID  string
}

// QueueCounts is a point-in-time census of both queues, used by the status
// endpoint and exported as gauges.
type QueueCounts struct {
	InboxPending    int64 `json:"inbox_pending"`
	InboxProcessing int64 `json:"inbox_processing"`
	InboxDone       int64 `json:"inbox_done"`
	InboxFailed     int64 `json:"inbox_failed"`
	OutboxPending   int64 `json:"outbox_pending"`
	OutboxDone      int64 `json:"outbox_done"`
	OutboxFailed    int64 `json:"outbox_failed_permanent"`
}

// TrafficEntry is one line of the rolling message log: a command arriving on
// a channel or a reply leaving it. Direction is "in" or "out".
type TrafficEntry struct {
	ID          int64  `json:"id"`
	TS          int64  `json:"ts"`
	Channel     string `json:"channel"`
	Direction   string `json:"direction"`
	Message     string `json:"message"`
	Correlation string `json:"correlation,omitempty"`
}

// Traffic directions for TrafficEntry.
const (
	TrafficIn  = "in"
	TrafficOut = "out"
)
