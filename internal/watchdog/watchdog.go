// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package watchdog tracks peer reachability so the sender can stop burning
// retry budget while the shop-floor host is offline.
//
// Each tick the watchdog runs its probes with OR semantics: the peer counts
// as reachable if at least one probe passes. A single success flips the
// state to up immediately; the state only drops to down after DownAfter
// consecutive failed rounds, so one lost ping during a network blip does not
// gate the sender. With no probes configured the watchdog is permanently up
// and the sender is never gated.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/models"
)

// Config controls probe cadence and the down threshold.
type Config struct {
	// Interval between probe rounds.
	Interval time.Duration
	// Timeout for each individual probe.
	Timeout time.Duration
	// DownAfter is the number of consecutive failed rounds before the
	// peer is declared down.
	DownAfter int
}

// DefaultConfig returns the probe cadence used when the operator does not
// override it: probe every 2s, give each check 1s, declare down after 3
// straight misses.
func DefaultConfig() Config {
	return Config{
		Interval:  2 * time.Second,
		Timeout:   time.Second,
		DownAfter: 3,
	}
}

// Watchdog polls the peer and exposes the current verdict to the sender and
// the status API. It implements suture.Service.
type Watchdog struct {
	cfg     Config
	probers []Prober
	clock   clockwork.Clock

	mu           sync.Mutex
	state        models.WatchdogState
	consecFails  int
	lastProbeTS  int64
	lastOKTS     int64
}

// New builds a watchdog over the given probes. A nil clock means the real
// one. With no probes the watchdog starts (and stays) up; otherwise it
// starts unknown and the first probe round decides.
func New(cfg Config, probers []Prober, clock clockwork.Clock) *Watchdog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.DownAfter <= 0 {
		cfg.DownAfter = DefaultConfig().DownAfter
	}

	w := &Watchdog{
		cfg:     cfg,
		probers: probers,
		clock:   clock,
		state:   models.WatchdogUnknown,
	}
	if len(probers) == 0 {
		w.state = models.WatchdogUp
		metrics.WatchdogUp.Set(1)
		logging.Info().Msg("Watchdog disabled, peer assumed reachable")
	}
	return w
}

// Serve runs probe rounds until the context is cancelled. It probes once
// immediately so the sender is not gated for a full interval at startup.
func (w *Watchdog) Serve(ctx context.Context) error {
	if len(w.probers) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	logging.Info().
		Dur("interval", w.cfg.Interval).
		Dur("timeout", w.cfg.Timeout).
		Int("down_after", w.cfg.DownAfter).
		Int("probes", len(w.probers)).
		Msg("Watchdog started")

	w.probeOnce(ctx)

	ticker := w.clock.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Watchdog stopped")
			return ctx.Err()
		case <-ticker.Chan():
			w.probeOnce(ctx)
		}
	}
}

// probeOnce runs one round. Probes short-circuit on the first pass.
func (w *Watchdog) probeOnce(ctx context.Context) {
	pass := false
	for _, p := range w.probers {
		checkCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
		ok := p.Probe(checkCtx)
		cancel()
		if ok {
			pass = true
			break
		}
		if ctx.Err() != nil {
			return
		}
	}
	w.observe(pass)
}

// observe feeds one round's verdict into the state machine.
func (w *Watchdog) observe(pass bool) {
	w.mu.Lock()

	now := w.clock.Now().Unix()
	w.lastProbeTS = now
	prev := w.state

	if pass {
		w.consecFails = 0
		w.lastOKTS = now
		w.state = models.WatchdogUp
	} else {
		w.consecFails++
		if w.consecFails >= w.cfg.DownAfter {
			w.state = models.WatchdogDown
		}
	}

	state, fails := w.state, w.consecFails
	w.mu.Unlock()

	metrics.RecordWatchdogProbe(pass, state == models.WatchdogUp)

	if state != prev {
		metrics.RecordWatchdogTransition(string(prev), string(state))
		evt := logging.Info()
		if state == models.WatchdogDown {
			evt = logging.Warn()
		}
		evt.
			Str("from", string(prev)).
			Str("to", string(state)).
			Int("consecutive_fails", fails).
			Msg("Peer reachability changed")
	}
}

// IsUp reports whether sends should flow right now.
func (w *Watchdog) IsUp() bool {
	return w.State() == models.WatchdogUp
}

// State returns the current verdict.
func (w *Watchdog) State() models.WatchdogState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns the full view for the status API.
func (w *Watchdog) Snapshot() models.WatchdogSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.WatchdogSnapshot{
		State:            w.state,
		ConsecutiveFails: w.consecFails,
		LastProbeTS:      w.lastProbeTS,
		LastOKTS:         w.lastOKTS,
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *Watchdog) String() string { return "watchdog" }
