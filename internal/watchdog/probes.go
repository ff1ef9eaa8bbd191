// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package watchdog

import (
	"context"
	"io"
	"net/http"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/tomtom215/fieldbridge/internal/logging"
)

// Prober runs one liveness check against the peer. Probe reports pass/fail
// only; the watchdog owns the verdict.
type Prober interface {
	Name() string
	Probe(ctx context.Context) bool
}

type icmpProber struct {
	host       string
	privileged bool
}

// ICMPProber checks the peer with a single ICMP echo. Unprivileged mode uses
// a UDP ping socket (net.ipv4.ping_group_range must allow it); privileged
// mode needs CAP_NET_RAW or root.
func ICMPProber(host string, privileged bool) Prober {
	return &icmpProber{host: host, privileged: privileged}
}

func (p *icmpProber) Name() string { return "icmp" }

func (p *icmpProber) Probe(ctx context.Context) bool {
	pinger, err := probing.NewPinger(p.host)
	if err != nil {
		logging.Debug().Err(err).Str("host", p.host).Msg("Failed to create pinger")
		return false
	}
	defer pinger.Stop()

	pinger.SetPrivileged(p.privileged)
	pinger.Count = 1

	if err := pinger.RunWithContext(ctx); err != nil {
		logging.Debug().Err(err).Str("host", p.host).Msg("Ping failed")
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}

type httpProber struct {
	client *http.Client
	url    string
}

// HTTPProber checks the peer with a GET; any 2xx passes. The client is the
// shared peer client so probe traffic exercises the same pool and source
// binding as deliveries.
func HTTPProber(client *http.Client, url string) Prober {
	return &httpProber{client: client, url: url}
}

func (p *httpProber) Name() string { return "http" }

func (p *httpProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		logging.Debug().Err(err).Str("url", p.url).Msg("Failed to build health request")
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logging.Debug().Err(err).Str("url", p.url).Msg("Health request failed")
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
