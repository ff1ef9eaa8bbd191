// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package watchdog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/models"
)

var testEpoch = time.Unix(1_700_000_000, 0)

// scriptedProber replays a fixed plan of verdicts, repeating the last entry
// once the plan runs out.
type scriptedProber struct {
	name string
	plan []bool

	mu    sync.Mutex
	calls int
}

func (p *scriptedProber) Name() string { return p.name }

func (p *scriptedProber) Probe(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.plan) {
		i = len(p.plan) - 1
	}
	if i < 0 {
		return false
	}
	return p.plan[i]
}

func (p *scriptedProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestObserveHysteresis(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(Config{DownAfter: 3}, []Prober{&scriptedProber{name: "stub"}}, clk)

	if got := w.State(); got != models.WatchdogUnknown {
		t.Fatalf("initial state = %q, want %q", got, models.WatchdogUnknown)
	}

	steps := []struct {
		pass      bool
		wantState models.WatchdogState
		wantFails int
	}{
		{false, models.WatchdogUnknown, 1},
		{false, models.WatchdogUnknown, 2},
		{false, models.WatchdogDown, 3},
		{false, models.WatchdogDown, 4},
		{true, models.WatchdogUp, 0},
		{false, models.WatchdogUp, 1},
		{false, models.WatchdogUp, 2},
		{false, models.WatchdogDown, 3},
		{true, models.WatchdogUp, 0},
	}
	for i, step := range steps {
		w.observe(step.pass)
		snap := w.Snapshot()
		if snap.State != step.wantState {
			t.Fatalf("step %d: state = %q, want %q", i, snap.State, step.wantState)
		}
		if snap.ConsecutiveFails != step.wantFails {
			t.Fatalf("step %d: consecutive fails = %d, want %d", i, snap.ConsecutiveFails, step.wantFails)
		}
	}
}

func TestSnapshotTimestamps(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(DefaultConfig(), []Prober{&scriptedProber{name: "stub"}}, clk)

	w.observe(true)
	snap := w.Snapshot()
	if snap.LastProbeTS != testEpoch.Unix() || snap.LastOKTS != testEpoch.Unix() {
		t.Fatalf("after success: probe ts = %d, ok ts = %d, want both %d",
			snap.LastProbeTS, snap.LastOKTS, testEpoch.Unix())
	}

	clk.Advance(5 * time.Second)
	w.observe(false)
	snap = w.Snapshot()
	if snap.LastProbeTS != testEpoch.Unix()+5 {
		t.Fatalf("after failure: probe ts = %d, want %d", snap.LastProbeTS, testEpoch.Unix()+5)
	}
	if snap.LastOKTS != testEpoch.Unix() {
		t.Fatalf("after failure: ok ts = %d, want unchanged %d", snap.LastOKTS, testEpoch.Unix())
	}
}

func TestProbeRoundAnyPassCounts(t *testing.T) {
	t.Parallel()

	failing := &scriptedProber{name: "icmp", plan: []bool{false}}
	passing := &scriptedProber{name: "http", plan: []bool{true}}
	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(DefaultConfig(), []Prober{failing, passing}, clk)

	w.probeOnce(context.Background())

	if got := w.State(); got != models.WatchdogUp {
		t.Fatalf("state = %q, want %q", got, models.WatchdogUp)
	}
	if failing.Calls() != 1 || passing.Calls() != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", failing.Calls(), passing.Calls())
	}
}

func TestProbeRoundShortCircuitsOnPass(t *testing.T) {
	t.Parallel()

	passing := &scriptedProber{name: "icmp", plan: []bool{true}}
	spare := &scriptedProber{name: "http", plan: []bool{true}}
	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(DefaultConfig(), []Prober{passing, spare}, clk)

	w.probeOnce(context.Background())

	if got := w.State(); got != models.WatchdogUp {
		t.Fatalf("state = %q, want %q", got, models.WatchdogUp)
	}
	if spare.Calls() != 0 {
		t.Fatalf("second prober ran %d times, want 0", spare.Calls())
	}
}

func TestNoProbersReportsUp(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(DefaultConfig(), nil, clk)

	if !w.IsUp() {
		t.Fatal("watchdog with no probers should report up")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Serve(ctx) }()

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want context.Canceled", err)
	}
	if !w.IsUp() {
		t.Fatal("watchdog should still report up after shutdown")
	}
}

func TestServeProbesOnTicks(t *testing.T) {
	t.Parallel()

	probe := &scriptedProber{name: "http", plan: []bool{true, false, false, false, true}}
	clk := clockwork.NewFakeClockAt(testEpoch)
	cfg := Config{Interval: 2 * time.Second, Timeout: time.Second, DownAfter: 3}
	w := New(cfg, []Prober{probe}, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Serve(ctx) }()

	// Startup probe fires without waiting for the first tick.
	waitFor(t, "startup probe", func() bool { return probe.Calls() == 1 })
	if got := w.State(); got != models.WatchdogUp {
		t.Fatalf("state after startup probe = %q, want %q", got, models.WatchdogUp)
	}

	if err := clk.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for ticker: %v", err)
	}

	// Three straight misses take the peer down.
	for i := 2; i <= 4; i++ {
		clk.Advance(cfg.Interval)
		n := i
		waitFor(t, "probe round", func() bool { return probe.Calls() == n })
	}
	waitFor(t, "down verdict", func() bool { return w.State() == models.WatchdogDown })

	// One success brings it straight back.
	clk.Advance(cfg.Interval)
	waitFor(t, "recovery probe", func() bool { return probe.Calls() == 5 })
	waitFor(t, "up verdict", func() bool { return w.State() == models.WatchdogUp })

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want context.Canceled", err)
	}
}

func TestConfigDefaultsApplied(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClockAt(testEpoch)
	w := New(Config{}, []Prober{&scriptedProber{name: "stub"}}, clk)

	want := DefaultConfig()
	if w.cfg.Interval != want.Interval || w.cfg.Timeout != want.Timeout || w.cfg.DownAfter != want.DownAfter {
		t.Fatalf("cfg = %+v, want defaults %+v", w.cfg, want)
	}
}
