// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package models

// WatchdogState is the peer liveness verdict. The watchdog starts in
// StateUnknown until the first probe completes; it only reports StateDown
// after the configured number of consecutive probe failures, and flips back
// to StateUp on the first success.
type WatchdogState string

const (
	WatchdogUnknown WatchdogState = "unknown"
	WatchdogUp      WatchdogState = "up"
	WatchdogDown    WatchdogState = "down"
)

// WatchdogSnapshot is a point-in-time view of the watchdog for the status
// endpoint and logs.
type WatchdogSnapshot struct {
	State            WatchdogState `json:"state"`
	ConsecutiveFails int           `json:"consecutive_fails"`
	LastProbeTS      int64         `json:"last_probe_ts,omitempty"`
	LastOKTS         int64         `json:"last_ok_ts,omitempty"`
}
