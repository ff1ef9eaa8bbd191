// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package config

import (
	"strings"
	"time"
)

// Config holds all bridge configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in values matching a stock bridge deployment
//  2. Config File: Optional YAML file (FIELDBRIDGE_CONFIG or ./config.yaml)
//  3. Environment Variables: FIELDBRIDGE_* overrides any setting
//
// Configuration Categories:
//
//  1. Ingress:
//     - Server: HTTP listener for the host-facing API
//     - Auth: shared secrets for ingress and outbound callbacks
//
//  2. Persistence:
//     - Store: SQLite queue database path and traffic log retention
//
//  3. Peer & Delivery:
//     - Peer: callback endpoint, TLS, timeouts, source-IP binding
//     - Watchdog: reachability probing that gates the sender
//     - Retry: exponential backoff shape for failed deliveries
//
//  4. Processing:
//     - Bridge: router/sender poll cadence and device execution timeout
//     - Devices: per-channel endpoint and simulation settings
//
//  5. Observability:
//     - Logging: log level and output format
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access. Hot
// reload produces a new Config value; running components are restarted with
// the new value rather than mutated in place.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Store    StoreConfig    `koanf:"store"`
	Peer     PeerConfig     `koanf:"peer"`
	Watchdog WatchdogConfig `koanf:"watchdog"`
	Retry    RetryConfig    `koanf:"retry"`
	Bridge   BridgeConfig   `koanf:"bridge"`
	Devices  DevicesConfig  `koanf:"devices"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the host-facing HTTP listener settings.
//
// Environment Variables:
//   - FIELDBRIDGE_LISTEN_ADDR: listen address (default: ":8080")
//   - FIELDBRIDGE_READ_TIMEOUT_S / FIELDBRIDGE_WRITE_TIMEOUT_S: socket timeouts
//   - FIELDBRIDGE_MAX_BODY_BYTES: ingress payload cap (default: 64KiB)
type ServerConfig struct {
	ListenAddr    string  `koanf:"listen_addr" validate:"required"`
	ReadTimeoutS  float64 `koanf:"read_timeout_s" validate:"gt=0"`
	WriteTimeoutS float64 `koanf:"write_timeout_s" validate:"gt=0"`
	MaxBodyBytes  int64   `koanf:"max_body_bytes" validate:"min=1"`
}

// ReadTimeout returns the HTTP server read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	return secondsToDuration(c.ReadTimeoutS)
}

// WriteTimeout returns the HTTP server write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	return secondsToDuration(c.WriteTimeoutS)
}

// AuthConfig holds the shared secrets. Both default to empty, which disables
// the corresponding check: an empty SharedSecret leaves ingress open, and an
// empty OutboundSharedSecret omits the X-Shared-Secret header on callbacks.
//
// Environment Variables:
//   - FIELDBRIDGE_SHARED_SECRET: required in X-Shared-Secret on POST /api/inbox
//   - FIELDBRIDGE_OUTBOUND_SHARED_SECRET: sent as X-Shared-Secret on callbacks
type AuthConfig struct {
	SharedSecret         string `koanf:"shared_secret"`
	OutboundSharedSecret string `koanf:"outbound_shared_secret"`
}

// StoreConfig holds the SQLite queue database settings.
//
// Environment Variables:
//   - FIELDBRIDGE_DB_PATH: database file path (default: ./fieldbridge.db)
//   - FIELDBRIDGE_LOG_KEEP: traffic log rows retained (default: 5000)
type StoreConfig struct {
	Path    string `koanf:"path" validate:"required"`
	LogKeep int    `koanf:"log_keep" validate:"min=0"`
}

// PeerConfig holds the remote host endpoint settings. BaseURL must be a bare
// scheme://host[:port] with no path; the callback path is fixed.
//
// HealthPath and WatchdogHost both default to empty, which disables the HTTP
// and ICMP reachability probes respectively. With both empty the watchdog
// reports the peer as permanently up.
//
// Environment Variables:
//   - FIELDBRIDGE_PEER_BASE_URL: peer base URL (default: https://192.168.1.10)
//   - FIELDBRIDGE_PEER_HEALTH_PATH: health endpoint path ("" = no HTTP probe)
//   - FIELDBRIDGE_PEER_WATCHDOG_HOST: ICMP target ("" = no ICMP probe)
//   - FIELDBRIDGE_TLS_VERIFY: verify peer TLS certificates (default: false;
//     shop-floor peers typically present self-signed certificates)
//   - FIELDBRIDGE_HTTP_TIMEOUT_S: outbound request timeout (default: 5)
//   - FIELDBRIDGE_BIND_SOURCE_IP: local source address for outbound requests,
//     used to force callback traffic onto a specific interface ("" = any)
type PeerConfig struct {
	BaseURL      string  `koanf:"base_url" validate:"required"`
	HealthPath   string  `koanf:"health_path"`
	WatchdogHost string  `koanf:"watchdog_host"`
	TLSVerify    bool    `koanf:"tls_verify"`
	HTTPTimeoutS float64 `koanf:"http_timeout_s" validate:"gt=0"`
	BindSourceIP string  `koanf:"bind_source_ip"`
}

// HTTPTimeout returns the outbound HTTP request timeout.
func (c PeerConfig) HTTPTimeout() time.Duration {
	return secondsToDuration(c.HTTPTimeoutS)
}

// CallbackURL returns the fixed peer endpoint that receives device replies.
func (c PeerConfig) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/api/inbox"
}

// HealthURL returns the peer health probe URL, or "" when the HTTP probe is
// disabled.
func (c PeerConfig) HealthURL() string {
	if c.HealthPath == "" {
		return ""
	}
	return strings.TrimRight(c.BaseURL, "/") + c.HealthPath
}

// WatchdogConfig holds the peer reachability probe settings.
//
// Environment Variables:
//   - FIELDBRIDGE_WATCHDOG_INTERVAL_S: probe period (default: 2)
//   - FIELDBRIDGE_WATCHDOG_TIMEOUT_S: per-probe timeout (default: 1)
//   - FIELDBRIDGE_WATCHDOG_DOWN_AFTER: consecutive failures before the peer
//     is declared down (default: 3)
//   - FIELDBRIDGE_PRIVILEGED_ICMP: use raw-socket ICMP instead of UDP ping
//     (default: false; enable when running as root or with CAP_NET_RAW)
type WatchdogConfig struct {
	IntervalS      float64 `koanf:"interval_s" validate:"gt=0"`
	TimeoutS       float64 `koanf:"timeout_s" validate:"gt=0"`
	DownAfter      int     `koanf:"down_after" validate:"min=1"`
	PrivilegedICMP bool    `koanf:"privileged_icmp"`
}

// Interval returns the probe period.
func (c WatchdogConfig) Interval() time.Duration {
	return secondsToDuration(c.IntervalS)
}

// Timeout returns the per-probe timeout.
func (c WatchdogConfig) Timeout() time.Duration {
	return secondsToDuration(c.TimeoutS)
}

// RetryConfig holds the delivery backoff shape: delay for attempt n is
// base * 2^(n-1), capped at Cap. There is no retry ceiling; jobs retry until
// they succeed or fail permanently.
//
// Environment Variables:
//   - FIELDBRIDGE_RETRY_BASE_S: first retry delay (default: 1.0)
//   - FIELDBRIDGE_RETRY_CAP_S: maximum retry delay (default: 60.0)
type RetryConfig struct {
	BaseS float64 `koanf:"base_s" validate:"gt=0"`
	CapS  float64 `koanf:"cap_s" validate:"gt=0"`
}

// Base returns the first retry delay.
func (c RetryConfig) Base() time.Duration {
	return secondsToDuration(c.BaseS)
}

// Cap returns the maximum retry delay.
func (c RetryConfig) Cap() time.Duration {
	return secondsToDuration(c.CapS)
}

// BridgeConfig holds the queue loop cadence settings.
//
// Environment Variables:
//   - FIELDBRIDGE_POLL_INTERVAL_MS: router idle poll period (default: 100)
//   - FIELDBRIDGE_SENDER_POLL_INTERVAL_MS: sender idle poll period (default: 200)
//   - FIELDBRIDGE_DEVICE_TIMEOUT_S: per-command device execution timeout (default: 3)
type BridgeConfig struct {
	PollIntervalMS       int     `koanf:"poll_interval_ms" validate:"min=1"`
	SenderPollIntervalMS int     `koanf:"sender_poll_interval_ms" validate:"min=1"`
	DeviceTimeoutS       float64 `koanf:"device_timeout_s" validate:"gt=0"`
}

// PollInterval returns the router idle poll period.
func (c BridgeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// SenderPollInterval returns the sender idle poll period.
func (c BridgeConfig) SenderPollInterval() time.Duration {
	return time.Duration(c.SenderPollIntervalMS) * time.Millisecond
}

// DeviceTimeout returns the per-command device execution timeout.
func (c BridgeConfig) DeviceTimeout() time.Duration {
	return secondsToDuration(c.DeviceTimeoutS)
}

// DevicesConfig holds the per-channel device blocks. The raspi channel has no
// block: it is always simulated.
type DevicesConfig struct {
	ESP    DeviceConfig `koanf:"esp"`
	VJ3350 DeviceConfig `koanf:"vj3350"`
	VJ6530 DeviceConfig `koanf:"vj6530"`
}

// DeviceConfig describes one device endpoint. Simulation defaults to true so
// a fresh install answers commands without hardware attached; live mode
// requires Host and Port.
//
// SimDefaults seeds the simulation adapter's parameter table: a read of an
// unwritten key returns the seeded value instead of "0". From the
// environment the map is given as comma-separated pairs, e.g.
// FIELDBRIDGE_VJ6530_SIM_DEFAULTS="TTP00002=16,TTE0001=5".
type DeviceConfig struct {
	Host        string            `koanf:"host"`
	Port        int               `koanf:"port" validate:"min=0,max=65535"`
	Simulation  bool              `koanf:"simulation"`
	SimDefaults map[string]string `koanf:"sim_defaults"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - FIELDBRIDGE_LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - FIELDBRIDGE_LOG_FORMAT: json or console (default: json)
//   - FIELDBRIDGE_LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Redacted returns the running configuration as a nested map with secret
// values masked. Set secrets become "***"; empty secrets stay empty so
// operators can see at a glance that a check is disabled.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"listen_addr":     c.Server.ListenAddr,
			"read_timeout_s":  c.Server.ReadTimeoutS,
			"write_timeout_s": c.Server.WriteTimeoutS,
			"max_body_bytes":  c.Server.MaxBodyBytes,
		},
		"auth": map[string]interface{}{
			"shared_secret":          maskSecret(c.Auth.SharedSecret),
			"outbound_shared_secret": maskSecret(c.Auth.OutboundSharedSecret),
		},
		"store": map[string]interface{}{
			"path":     c.Store.Path,
			"log_keep": c.Store.LogKeep,
		},
		"peer": map[string]interface{}{
			"base_url":       c.Peer.BaseURL,
			"health_path":    c.Peer.HealthPath,
			"watchdog_host":  c.Peer.WatchdogHost,
			"tls_verify":     c.Peer.TLSVerify,
			"http_timeout_s": c.Peer.HTTPTimeoutS,
			"bind_source_ip": c.Peer.BindSourceIP,
		},
		"watchdog": map[string]interface{}{
			"interval_s":      c.Watchdog.IntervalS,
			"timeout_s":       c.Watchdog.TimeoutS,
			"down_after":      c.Watchdog.DownAfter,
			"privileged_icmp": c.Watchdog.PrivilegedICMP,
		},
		"retry": map[string]interface{}{
			"base_s": c.Retry.BaseS,
			"cap_s":  c.Retry.CapS,
		},
		"bridge": map[string]interface{}{
			"poll_interval_ms":        c.Bridge.PollIntervalMS,
			"sender_poll_interval_ms": c.Bridge.SenderPollIntervalMS,
			"device_timeout_s":        c.Bridge.DeviceTimeoutS,
		},
		"devices": map[string]interface{}{
			"esp":    redactDevice(c.Devices.ESP),
			"vj3350": redactDevice(c.Devices.VJ3350),
			"vj6530": redactDevice(c.Devices.VJ6530),
		},
		"logging": map[string]interface{}{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
			"caller": c.Logging.Caller,
		},
	}
}

// maskSecret masks a set secret as "***" and leaves an empty secret empty.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// redactDevice renders one device block. Device blocks carry no secrets but
// are rendered through one place so the config endpoint stays uniform.
func redactDevice(d DeviceConfig) map[string]interface{} {
	return map[string]interface{}{
		"host":         d.Host,
		"port":         d.Port,
		"simulation":   d.Simulation,
		"sim_defaults": d.SimDefaults,
	}
}

// secondsToDuration converts a float seconds setting to a time.Duration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
