// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"context"
	"testing"

	"github.com/tomtom215/fieldbridge/internal/protocol"
)

// fakeExchanger scripts one reply or error and counts round trips.
type fakeExchanger struct {
	reply string
	err   error
	calls int
}

func (f *fakeExchanger) Exchange(_ context.Context, _ protocol.Command) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// recordingMirror captures the last mirrored value.
type recordingMirror struct {
	pkey  string
	value string
	calls int
	err   error
}

func (m *recordingMirror) ApplyDeviceValue(_ context.Context, pkey, value string) error {
	m.calls++
	m.pkey = pkey
	m.value = value
	return m.err
}

// staticAdapter answers every command with a fixed line.
type staticAdapter struct {
	channel string
	mode    string
	reply   string
}

func (a *staticAdapter) Execute(_ context.Context, _ protocol.Command) string { return a.reply }
func (a *staticAdapter) Channel() string                                      { return a.channel }
func (a *staticAdapter) Mode() string                                         { return a.mode }

func TestRegistryDispatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		&staticAdapter{channel: protocol.ChannelESPPLC, mode: ModeSimulation, reply: "MAP0007=1"},
		&staticAdapter{channel: protocol.ChannelVJ6530, mode: ModeLive, reply: "TTP00002=23"},
	)

	cmd := protocol.Command{PType: "MAP", PID: "0007", Read: true}
	if got := reg.Execute(context.Background(), protocol.ChannelESPPLC, cmd); got != "MAP0007=1" {
		t.Errorf("Execute(esp-plc) = %q, want MAP0007=1", got)
	}
}

func TestRegistryUnknownChannel(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	cmd := protocol.Command{PType: "TTP", PID: "00002", Read: true}
	got := reg.Execute(context.Background(), "plc-9000", cmd)
	want := "TTP00002=NAK_UnknownDevice"
	if got != want {
		t.Errorf("Execute on unknown channel = %q, want %q", got, want)
	}
}

func TestRegistryModesAndChannels(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		&staticAdapter{channel: protocol.ChannelRaspi, mode: ModeSimulation},
		&staticAdapter{channel: protocol.ChannelVJ3350, mode: ModeLive},
	)

	modes := reg.Modes()
	if modes[protocol.ChannelRaspi] != ModeSimulation || modes[protocol.ChannelVJ3350] != ModeLive {
		t.Errorf("Modes() = %v, want raspi=simulation vj3350=live", modes)
	}

	chs := reg.Channels()
	if len(chs) != 2 || chs[0] != protocol.ChannelRaspi || chs[1] != protocol.ChannelVJ3350 {
		t.Errorf("Channels() = %v, want sorted [raspi vj3350]", chs)
	}

	if _, ok := reg.Get(protocol.ChannelRaspi); !ok {
		t.Error("Get(raspi) missing a registered adapter")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Error("Get(nope) returned an adapter for an unregistered channel")
	}
}

func TestRegistryLaterAdapterWins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		&staticAdapter{channel: protocol.ChannelESPPLC, mode: ModeSimulation, reply: "old"},
		&staticAdapter{channel: protocol.ChannelESPPLC, mode: ModeLive, reply: "new"},
	)

	cmd := protocol.Command{PType: "MAP", PID: "0007", Read: true}
	if got := reg.Execute(context.Background(), protocol.ChannelESPPLC, cmd); got != "new" {
		t.Errorf("Execute = %q, want the replacement adapter's reply", got)
	}
}
