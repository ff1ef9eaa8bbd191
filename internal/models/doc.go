// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package models defines the data structures shared across the Fieldbridge
application.

This package is the single source of truth for queue rows, parameter
records, watchdog state and HTTP request/response shapes. It has no
dependencies on other internal packages so that every layer (store, bridge
loops, API) can exchange values without import cycles.

Key Components:

  - InboxMessage: one accepted delivery from the Microtom host
  - OutboxJob / OutboxJobSpec: durable HTTP deliveries owed to the host
  - QueueCounts: point-in-time census of both queues
  - Param / ParamValue: parameter metadata and last written values
  - WatchdogState / WatchdogSnapshot: peer liveness verdict
  - InboxAccepted, StatusResponse, ErrorResponse: API response bodies
  - TrafficEntry: rolling log of command/reply lines per channel

State Machines:

	inbox:  pending -> processing -> done | failed
	outbox: pending -> done | failed_permanent   (pending across retries)

Thread Safety:

All models are plain data structures, safe for concurrent reads. Mutation
happens only through the store, which serializes writes.
*/
package models
