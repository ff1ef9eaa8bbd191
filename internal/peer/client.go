// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package peer holds the HTTP client used for every outbound call to the
// Microtom host. One shared client serves the sender loop and the watchdog's
// HTTP probe so connection pooling and source binding behave the same for
// both.
package peer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/fieldbridge/internal/models"
)

// ErrInvalidJob marks deliveries that can never succeed, such as a job whose
// URL is relative or unparsable. The sender fails these permanently without
// burning a retry.
var ErrInvalidJob = errors.New("peer: invalid job")

const (
	defaultTimeout = 5 * time.Second

	// connectTimeoutCap bounds the TCP connect separately from the total
	// request timeout, so a black-holed peer fails fast even with a
	// generous http_timeout_s.
	connectTimeoutCap = 1500 * time.Millisecond

	// maxDrainBytes limits how much of a response body is read before
	// closing, enough to keep connections reusable without unbounded reads.
	maxDrainBytes = 64 * 1024
)

// Config controls the shared outbound client.
type Config struct {
	// Timeout is the total per-request budget. Zero means 5s.
	Timeout time.Duration
	// BindSourceIP pins outbound dials to a local address. Empty lets the
	// kernel choose. Multi-homed bridges use this to reach the machine
	// network over the right interface.
	BindSourceIP string
	// TLSVerify enables certificate verification. Shop-floor peers usually
	// run self-signed certs, so the default is off.
	TLSVerify bool
}

// Client delivers outbox jobs to the peer. Safe for concurrent use.
type Client struct {
	http *http.Client
}

// New builds the shared client. It fails only on an unparsable BindSourceIP.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	connectTimeout := connectTimeoutCap
	if cfg.Timeout < connectTimeout {
		connectTimeout = cfg.Timeout
	}

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	if cfg.BindSourceIP != "" {
		ip := net.ParseIP(cfg.BindSourceIP)
		if ip == nil {
			return nil, fmt.Errorf("invalid bind source IP %q", cfg.BindSourceIP)
		}
		dialer.LocalAddr = &net.TCPAddr{IP: ip}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if !cfg.TLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed peers are the norm on machine networks
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// HTTPClient exposes the underlying client for the watchdog's HTTP probe.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Send delivers one job and returns the peer's status code. The status is
// meaningful only when err is nil. Jobs that cannot even be turned into a
// request wrap ErrInvalidJob; transport failures return the underlying error
// so the sender can schedule a retry.
func (c *Client) Send(ctx context.Context, job *models.OutboxJob) (int, error) {
	u, err := url.Parse(job.URL)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %q: %v", ErrInvalidJob, job.URL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return 0, fmt.Errorf("%w: URL %q is not absolute", ErrInvalidJob, job.URL)
	}

	method := job.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(job.Body))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrInvalidJob, err)
	}
	for k, v := range job.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("deliver job %d: %w", job.ID, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	return resp.StatusCode, nil
}
