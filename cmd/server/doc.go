// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package main is the entry point for the Fieldbridge bridge daemon.

Fieldbridge is a durable command bridge between a shop-floor host and the
line devices it drives (ESP-PLC controller, VideoJet VJ6530/VJ3350 printers).
The host fires commands at the bridge and forgets them; the bridge queues
them in SQLite, executes them against the right device channel, and delivers
the reply lines back to the host's callback endpoint with retry and backoff.
Power loss at any point loses nothing that was acknowledged.

# Application Architecture

The daemon implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("fieldbridge")
	├── DataSupervisor ("data-layer")
	│   └── Queue stats refresher (SQLite depth gauges)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Watchdog (ICMP/HTTP peer probes gating the sender)
	│   ├── Router loop (inbox → device adapters → outbox)
	│   └── Sender loop (outbox → peer callback, retry/backoff)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (ingress, status, config, metrics)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Queue store: SQLite inbox/outbox with crashed-claim recovery
 4. Peer client: shared outbound HTTP client for sender and health probe
 5. Watchdog: peer reachability probes (pro-bing ICMP, HTTP health)
 6. Device registry: simulated or live TCP adapters per channel
 7. Supervisor tree: Suture v4 process supervision
 8. HTTP server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority
wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Host-facing listener
	FIELDBRIDGE_LISTEN_ADDR=:8080      # HTTP listen address
	FIELDBRIDGE_SHARED_SECRET=<secret> # required on POST /api/inbox when set
	FIELDBRIDGE_LOG_LEVEL=info         # trace, debug, info, warn, error
	FIELDBRIDGE_LOG_FORMAT=json        # json or console

	# Peer (the shop-floor host)
	FIELDBRIDGE_PEER_BASE_URL=https://192.168.1.10
	FIELDBRIDGE_PEER_HEALTH_PATH=/health   # "" disables the HTTP probe
	FIELDBRIDGE_PEER_WATCHDOG_HOST=        # ICMP target, "" disables
	FIELDBRIDGE_OUTBOUND_SHARED_SECRET=    # sent on callback posts

	# Queue store
	FIELDBRIDGE_DB_PATH=./fieldbridge.db
	FIELDBRIDGE_LOG_KEEP=5000          # traffic log rows kept per channel

	# Devices (each of ESP, VJ3350, VJ6530)
	FIELDBRIDGE_ESP_SIMULATION=true    # false requires host+port
	FIELDBRIDGE_ESP_HOST=10.0.0.50
	FIELDBRIDGE_ESP_PORT=9100
	FIELDBRIDGE_ESP_SIM_DEFAULTS="TTP00002=16,SSP00001=200"

	# Retry policy for callback delivery
	FIELDBRIDGE_RETRY_BASE_S=1.0
	FIELDBRIDGE_RETRY_CAP_S=60.0

An optional YAML file (FIELDBRIDGE_CONFIG or ./config.yaml) carries the same
settings in nested form.

# Simulation Mode

Every device channel defaults to simulation: commands are answered from the
parameter store, so a fresh install on a bench behaves like a full line
without any hardware attached. Flipping a channel to live mode points it at
a TCP endpoint speaking one newline-terminated command per connection.

# Hot Reload

When a config file is in use, edits to it reload the configuration without a
restart. A valid new configuration swaps the router and sender loops in
place (new poll cadence, retry policy, callback URL, peer client); the queue
store, watchdog, device registry, and HTTP listener keep their boot-time
settings until the process restarts. An invalid edit is logged and ignored.

# Signal Handling

The daemon handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Router and sender loops finish their in-flight message
 3. Waits for in-flight requests (10s timeout)
 4. Closes the queue store; unacknowledged work stays queued
 5. Reports any services that failed to stop

# Usage Examples

Bench (everything simulated, no auth):

	export FIELDBRIDGE_PEER_BASE_URL=http://localhost:9999
	go run ./cmd/server

Production (live ESP-PLC, simulated printers):

	export FIELDBRIDGE_PEER_BASE_URL=http://microtom:8080
	export FIELDBRIDGE_PEER_HEALTH_PATH=/health
	export FIELDBRIDGE_ESP_SIMULATION=false
	export FIELDBRIDGE_ESP_HOST=10.0.0.50 FIELDBRIDGE_ESP_PORT=9100
	export FIELDBRIDGE_SHARED_SECRET=$(openssl rand -hex 16)
	export FIELDBRIDGE_OUTBOUND_SHARED_SECRET=$(openssl rand -hex 16)
	./fieldbridge

# API Surface

	POST /api/inbox           # host pushes command payloads
	GET  /api/status          # queues, watchdog, device modes
	GET  /api/config          # running config, secrets redacted
	POST /api/outbox/enqueue  # operator injects a callback job
	GET  /health              # liveness for systemd and the host
	GET  /metrics             # Prometheus exposition

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/bridge: Router and sender loops
  - internal/store: SQLite queue store
  - internal/api: HTTP handlers and routing
*/
package main
