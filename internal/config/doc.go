// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package config provides centralized configuration management for Fieldbridge.

This package handles loading, validation, and parsing of configuration for
all bridge components: the ingress HTTP server, the SQLite queue store, the
peer delivery client, the watchdog, the queue loops, and the device adapters.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

  - Built-in defaults (stock deployment values)
  - Optional YAML config file (FIELDBRIDGE_CONFIG, ./config.yaml, or
    /etc/fieldbridge/config.yaml)
  - FIELDBRIDGE_* environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: host-facing HTTP listener (address, timeouts, body cap)
  - AuthConfig: ingress and outbound shared secrets
  - StoreConfig: SQLite database path and traffic log retention
  - PeerConfig: callback endpoint, TLS verification, source-IP binding
  - WatchdogConfig: reachability probe cadence and hysteresis
  - RetryConfig: delivery backoff shape
  - BridgeConfig: router/sender poll cadence, device execution timeout
  - DevicesConfig: per-channel endpoint and simulation settings
  - LoggingConfig: log level and output format

# Hot Reload

WatchConfigFile watches the loaded file and invokes a callback on change. The
callback reloads and validates; an invalid file keeps the running config. The
caller decides which components to restart with the new value — the store is
never reopened on reload, so queue contents survive.

# Usage

	cfg, err := config.Load("")
	if err != nil {
	    // exit: configuration errors name the offending FIELDBRIDGE_* variable
	}
	store, err := store.Open(cfg.Store.Path)
*/
package config
