// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fieldbridge/config.yaml",
	"/etc/fieldbridge/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "FIELDBRIDGE_CONFIG"

// defaultConfig returns a Config with the stock deployment values. These are
// applied first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:    ":8080",
			ReadTimeoutS:  15,
			WriteTimeoutS: 30,
			MaxBodyBytes:  64 * 1024,
		},
		Auth: AuthConfig{
			SharedSecret:         "", // empty = open ingress
			OutboundSharedSecret: "", // empty = no X-Shared-Secret on callbacks
		},
		Store: StoreConfig{
			Path:    "./fieldbridge.db",
			LogKeep: 5000,
		},
		Peer: PeerConfig{
			BaseURL:      "https://192.168.1.10",
			HealthPath:   "", // no HTTP probe until configured
			WatchdogHost: "", // no ICMP probe until configured
			TLSVerify:    false,
			HTTPTimeoutS: 5,
			BindSourceIP: "",
		},
		Watchdog: WatchdogConfig{
			IntervalS:      2,
			TimeoutS:       1,
			DownAfter:      3,
			PrivilegedICMP: false,
		},
		Retry: RetryConfig{
			BaseS: 1.0,
			CapS:  60.0,
		},
		Bridge: BridgeConfig{
			PollIntervalMS:       100,
			SenderPollIntervalMS: 200,
			DeviceTimeoutS:       3,
		},
		Devices: DevicesConfig{
			// Simulation by default so a fresh install answers commands
			// before any hardware is cabled up.
			ESP:    DeviceConfig{Host: "", Port: 0, Simulation: true},
			VJ3350: DeviceConfig{Host: "", Port: 0, Simulation: true},
			VJ6530: DeviceConfig{Host: "", Port: 0, Simulation: true},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in stock deployment values
//  2. Config File: optional YAML file (explicit path, FIELDBRIDGE_CONFIG, or
//     the first hit in DefaultConfigPaths)
//  3. Environment Variables: FIELDBRIDGE_* overrides any setting
//
// An explicit non-empty path must exist and parse; a path of "" makes the
// file layer optional. The loaded configuration is validated before being
// returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional unless explicitly given)
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// FIELDBRIDGE_PEER_BASE_URL -> peer.base_url
	// FIELDBRIDGE_VJ6530_SIMULATION -> devices.vj6530.simulation
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process map fields from comma-separated pair strings
	if err := processMapFields(k); err != nil {
		return nil, fmt.Errorf("failed to process map fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file, checking FIELDBRIDGE_CONFIG
// first and then the default paths. Returns the first file that exists, or
// "" if none found. Exported so the reload watcher can resolve the same file
// Load used.
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mapConfigPaths defines which config paths should be parsed as
// comma-separated key=value maps when they arrive as strings.
var mapConfigPaths = []string{
	"devices.esp.sim_defaults",
	"devices.vj3350.sim_defaults",
	"devices.vj6530.sim_defaults",
}

// processMapFields converts comma-separated "key=value" strings to maps for
// known map fields. Env vars come in as strings, but the config expects maps.
func processMapFields(k *koanf.Koanf) error {
	for _, path := range mapConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a map (from YAML file), skip
		if _, ok := val.(map[string]interface{}); ok {
			continue
		}
		if _, ok := val.(map[string]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parsed := make(map[string]string)
		for _, pair := range strings.Split(strVal, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, found := strings.Cut(pair, "=")
			if !found || strings.TrimSpace(key) == "" {
				return fmt.Errorf("invalid map entry %q in %s: want key=value", pair, path)
			}
			parsed[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		if len(parsed) > 0 {
			if err := k.Set(path, parsed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Only variables in the mapping table are honored.
//
// Examples:
//   - FIELDBRIDGE_LISTEN_ADDR -> server.listen_addr
//   - FIELDBRIDGE_DB_PATH -> store.path
//   - FIELDBRIDGE_PEER_BASE_URL -> peer.base_url
//   - FIELDBRIDGE_ESP_SIM_DEFAULTS -> devices.esp.sim_defaults
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"fieldbridge_listen_addr":     "server.listen_addr",
		"fieldbridge_read_timeout_s":  "server.read_timeout_s",
		"fieldbridge_write_timeout_s": "server.write_timeout_s",
		"fieldbridge_max_body_bytes":  "server.max_body_bytes",

		// Auth mappings
		"fieldbridge_shared_secret":          "auth.shared_secret",
		"fieldbridge_outbound_shared_secret": "auth.outbound_shared_secret",

		// Store mappings
		"fieldbridge_db_path":  "store.path",
		"fieldbridge_log_keep": "store.log_keep",

		// Peer mappings
		"fieldbridge_peer_base_url":      "peer.base_url",
		"fieldbridge_peer_health_path":   "peer.health_path",
		"fieldbridge_peer_watchdog_host": "peer.watchdog_host",
		"fieldbridge_tls_verify":         "peer.tls_verify",
		"fieldbridge_http_timeout_s":     "peer.http_timeout_s",
		"fieldbridge_bind_source_ip":     "peer.bind_source_ip",

		// Watchdog mappings
		"fieldbridge_watchdog_interval_s": "watchdog.interval_s",
		"fieldbridge_watchdog_timeout_s":  "watchdog.timeout_s",
		"fieldbridge_watchdog_down_after": "watchdog.down_after",
		"fieldbridge_privileged_icmp":     "watchdog.privileged_icmp",

		// Retry mappings
		"fieldbridge_retry_base_s": "retry.base_s",
		"fieldbridge_retry_cap_s":  "retry.cap_s",

		// Bridge loop mappings
		"fieldbridge_poll_interval_ms":        "bridge.poll_interval_ms",
		"fieldbridge_sender_poll_interval_ms": "bridge.sender_poll_interval_ms",
		"fieldbridge_device_timeout_s":        "bridge.device_timeout_s",

		// Device mappings
		"fieldbridge_esp_host":            "devices.esp.host",
		"fieldbridge_esp_port":            "devices.esp.port",
		"fieldbridge_esp_simulation":      "devices.esp.simulation",
		"fieldbridge_esp_sim_defaults":    "devices.esp.sim_defaults",
		"fieldbridge_vj3350_host":         "devices.vj3350.host",
		"fieldbridge_vj3350_port":         "devices.vj3350.port",
		"fieldbridge_vj3350_simulation":   "devices.vj3350.simulation",
		"fieldbridge_vj3350_sim_defaults": "devices.vj3350.sim_defaults",
		"fieldbridge_vj6530_host":         "devices.vj6530.host",
		"fieldbridge_vj6530_port":         "devices.vj6530.port",
		"fieldbridge_vj6530_simulation":   "devices.vj6530.simulation",
		"fieldbridge_vj6530_sim_defaults": "devices.vj6530.sim_defaults",

		// Logging mappings
		"fieldbridge_log_level":  "logging.level",
		"fieldbridge_log_format": "logging.format",
		"fieldbridge_log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability. The
// callback fires on every change event; it is expected to call Load again
// and decide what to do with the result. The caller is responsible for
// serializing reloads.
//
// Example usage:
//
//	err := config.WatchConfigFile(path, func() {
//	    newCfg, err := config.Load(path)
//	    if err != nil {
//	        logging.Err(err).Msg("Config reload failed, keeping running config")
//	        return
//	    }
//	    coordinator.Apply(newCfg)
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
