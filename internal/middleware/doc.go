// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package middleware provides HTTP middleware shared by the bridge's API.

Both middlewares here use the func(http.HandlerFunc) http.HandlerFunc shape
and are mounted on the Chi router through the api package's adapter.

Key Components:

  - Request ID: UUID-based request tracking wired into the logging context
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	r.Use(chiMiddleware(middleware.RequestID))

	// Access request ID in a handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing") // request_id attached
	}

Thread Safety:

Both components are thread-safe: request IDs live in immutable contexts and
the Prometheus collectors use atomic operations.

See Also:

  - internal/api: router assembly and the chiMiddleware adapter
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
