// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package supervisor provides process supervision for Fieldbridge using suture v4.

This package implements a hierarchical supervisor tree that manages the lifecycle
of all long-running services in the bridge. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("fieldbridge")
	├── DataSupervisor ("data-layer")
	│   └── QueueStatsService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Watchdog
	│   ├── Router loop
	│   └── Sender loop
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash in the sender loop doesn't take ingress down
  - Watchdog failures don't impact the status endpoint
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Suture events flow through sutureslog into slog
  - logging.NewSlogLogger routes them on to zerolog
  - Logs service starts, stops, failures, and restarts

# Usage Example

Basic setup in main.go:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddDataService(services.NewQueueStatsService(st, 0, nil))
	tree.AddMessagingService(wd)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	// Start the tree (blocks until context canceled)
	if err := tree.Serve(ctx); err != nil {
	    log.Printf("Supervisor stopped: %v", err)
	}

Background operation:

	errChan := tree.ServeBackground(ctx)

	// Do other setup...

	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Restartable Loops

The router and sender loops are managed through a LoopManager rather than
added to the tree directly. Their configuration (poll intervals, retry
policy, device wiring) is baked in at construction, so a configuration
reload rebuilds them and swaps the running instances:

	loops, _ := supervisor.NewLoopManager(tree, 0)
	_ = loops.Start("router-loop", router)
	_ = loops.Start("sender-loop", sender)

	// After a successful config reload:
	_ = loops.Replace("router-loop", newRouter)
	_ = loops.Replace("sender-loop", newSender)

Replace stops the old loop and waits for it to fully terminate before the
replacement starts, so two routers never claim from the inbox at once. The
store itself is not restarted; queue contents survive the swap.

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

The watchdog, router and sender implement this interface directly; the HTTP
server and the store are adapted through the wrappers in
internal/supervisor/services.

# What Is NOT Supervised

The SQLite store is intentionally not supervised:
  - It's an embedded library, not a long-running service
  - Connections are managed by the store package
  - A corrupt database file would require operator intervention anyway

The peer HTTP client is not supervised either; delivery failures are handled
by the sender loop's retry schedule and the watchdog gate.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes:
  - Goroutines not respecting context cancellation
  - Blocked network I/O without deadlines
  - Mutex deadlocks during shutdown

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
