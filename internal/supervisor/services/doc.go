// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package services provides suture.Service wrappers for components that do not
implement the supervision interface themselves.

The watchdog, router and sender loops implement suture.Service directly and
need no wrapper. The two adapters here cover the rest of the tree:

  - HTTPServerService: adapts http.Server's blocking ListenAndServe/Shutdown
    lifecycle to suture's context-driven Serve.
  - QueueStatsService: periodic poller that refreshes the queue depth gauges
    from the store.

Each wrapper takes its dependency as a small interface, so tests can
substitute doubles without touching the real component.
*/
package services
