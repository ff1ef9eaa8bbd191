// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package api provides the bridge's HTTP surface on a Chi router.
//
// The surface is small and host-facing. The Microtom host pushes commands
// with POST /api/inbox and everything else is operator tooling:
//
//   - POST /api/inbox          accept a command delivery (shared-secret auth)
//   - GET  /health             liveness, no auth
//   - GET  /api/status         queue counts, watchdog verdict, adapter modes,
//     recent traffic
//   - GET  /api/config         running configuration, secrets redacted
//   - POST /api/outbox/enqueue hand-enqueue an outbound delivery
//   - GET  /metrics            Prometheus exposition
//
// Authentication is a single shared secret carried in the X-Shared-Secret
// header and compared in constant time. An empty configured secret disables
// the check, which is the expected state on an isolated shop-floor segment.
//
// Responses are plain JSON envelopes: {"ok": true, ...} on success and
// {"ok": false, "error": "..."} on failure, matching what the host-side
// integration already parses.
//
// Structure:
//   - chi_router.go: Router assembly (SetupChi) and middleware ordering
//   - chi_middleware.go: CORS, rate limits, security headers, secret auth
//   - handlers.go: Handler struct, constructor, liveness
//   - handlers_inbox.go: ingress path
//   - handlers_status.go: status and config views
//   - handlers_outbox.go: manual outbox enqueue
//   - respond.go: JSON envelope helpers
package api
