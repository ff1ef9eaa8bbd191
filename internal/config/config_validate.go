// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/tomtom215/fieldbridge/internal/validation"
)

// Validate checks that the configuration is complete and consistent. Field
// tags cover presence and ranges; the hand checks below cover formats and
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validatePeer(); err != nil {
		return err
	}

	if err := c.validateRetry(); err != nil {
		return err
	}

	return c.validateDevices()
}

// validateServer validates the listener address.
func (c *Config) validateServer() error {
	host, port, err := net.SplitHostPort(c.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("FIELDBRIDGE_LISTEN_ADDR is invalid: %w", err)
	}
	if err := validatePort(port, "FIELDBRIDGE_LISTEN_ADDR"); err != nil {
		return err
	}
	if host != "" && host != "0.0.0.0" && host != "::" {
		if ip := net.ParseIP(host); ip == nil {
			// Hostnames are allowed; reject only things that cannot resolve
			// to an address form at all.
			if strings.ContainsAny(host, " /") {
				return fmt.Errorf("FIELDBRIDGE_LISTEN_ADDR host is invalid: %q", host)
			}
		}
	}
	return nil
}

// validatePeer validates the peer endpoint settings.
func (c *Config) validatePeer() error {
	if err := validateHTTPURL(c.Peer.BaseURL, "FIELDBRIDGE_PEER_BASE_URL"); err != nil {
		return err
	}

	if c.Peer.HealthPath != "" && !strings.HasPrefix(c.Peer.HealthPath, "/") {
		return fmt.Errorf("FIELDBRIDGE_PEER_HEALTH_PATH must start with /, got: %s", c.Peer.HealthPath)
	}

	if c.Peer.BindSourceIP != "" {
		if ip := net.ParseIP(c.Peer.BindSourceIP); ip == nil {
			return fmt.Errorf("FIELDBRIDGE_BIND_SOURCE_IP is not a valid IP address: %s", c.Peer.BindSourceIP)
		}
	}

	return nil
}

// validateRetry validates the backoff shape.
func (c *Config) validateRetry() error {
	if c.Retry.CapS < c.Retry.BaseS {
		return fmt.Errorf("FIELDBRIDGE_RETRY_CAP_S (%g) must be >= FIELDBRIDGE_RETRY_BASE_S (%g)",
			c.Retry.CapS, c.Retry.BaseS)
	}
	return nil
}

// validateDevices checks that every live-mode device has an endpoint.
// Simulation-mode devices need neither host nor port.
func (c *Config) validateDevices() error {
	devices := []struct {
		name string
		cfg  DeviceConfig
	}{
		{"ESP", c.Devices.ESP},
		{"VJ3350", c.Devices.VJ3350},
		{"VJ6530", c.Devices.VJ6530},
	}

	for _, d := range devices {
		if d.cfg.Simulation {
			continue
		}
		if d.cfg.Host == "" {
			return fmt.Errorf("FIELDBRIDGE_%s_HOST is required when simulation is disabled", d.name)
		}
		if d.cfg.Port < 1 || d.cfg.Port > 65535 {
			return fmt.Errorf("FIELDBRIDGE_%s_PORT must be 1-65535 when simulation is disabled, got: %d",
				d.name, d.cfg.Port)
		}
	}

	return nil
}

// validatePort validates a decimal port string in the 1-65535 range.
func validatePort(port, fieldName string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%s port is not a number: %s", fieldName, port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%s port must be 1-65535, got: %d", fieldName, n)
	}
	return nil
}
