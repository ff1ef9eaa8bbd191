// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package models

// InboxAccepted is the response body for POST /api/inbox.
//
// Stored is false when a non-empty idempotency key matched an existing row;
// the request is still answered 200 so the host treats the retry as settled.
// IdempotencyKey echoes the submitted key (may be empty).
//
// Example:
//
//	{
//	  "ok": true,
//	  "stored": true,
//	  "idempotency_key": "2d1f8a3e-..."
//	}
type InboxAccepted struct {
	OK             bool   `json:"ok"`
	Stored         bool   `json:"stored"`
	IdempotencyKey string `json:"idempotency_key"`
}

// HealthResponse is the body for GET /health. Kept to the bare shape the
// Microtom host's watchdog polls for.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the uniform error body for all endpoints.
//
// Example:
//
//	{
//	  "ok": false,
//	  "error": "unauthorized"
//	}
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ChannelStatus describes one device channel for the status endpoint.
type ChannelStatus struct {
	Channel    string `json:"channel"`
	Simulation bool   `json:"simulation"`
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// StatusResponse is the body for GET /api/status: queue depths, watchdog
// verdict, channel modes and the tail of the traffic log.
type StatusResponse struct {
	OK       bool             `json:"ok"`
	Counts   QueueCounts      `json:"counts"`
	Watchdog WatchdogSnapshot `json:"watchdog"`
	Channels []ChannelStatus  `json:"channels"`
	Traffic  []TrafficEntry   `json:"traffic,omitempty"`
}

// ConfigResponse wraps the redacted running configuration for GET /api/config.
type ConfigResponse struct {
	OK     bool           `json:"ok"`
	Config map[string]any `json:"config"`
}
