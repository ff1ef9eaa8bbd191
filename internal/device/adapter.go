// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"context"
	"sort"

	"github.com/tomtom215/fieldbridge/internal/protocol"
)

// Modes reported by adapters for the status endpoint.
const (
	ModeSimulation = "simulation"
	ModeLive       = "live"
)

// Adapter executes one command against a device channel. Execute always
// returns a complete reply line; device and transport failures surface as
// NAK replies, never as Go errors.
type Adapter interface {
	Execute(ctx context.Context, cmd protocol.Command) string
	Channel() string
	Mode() string
}

// Registry resolves channels to adapters. Unknown channels answer
// NAK_UnknownDevice so the host always gets a reply per command.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters, keyed by channel.
// A later adapter with the same channel replaces the earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Channel()] = a
	}
	return r
}

// Execute dispatches cmd to the adapter registered for channel.
func (r *Registry) Execute(ctx context.Context, channel string, cmd protocol.Command) string {
	a, ok := r.adapters[channel]
	if !ok {
		return protocol.FormatNak(cmd.PKey(), protocol.NakUnknownDevice)
	}
	return a.Execute(ctx, cmd)
}

// Get returns the adapter for a channel.
func (r *Registry) Get(channel string) (Adapter, bool) {
	a, ok := r.adapters[channel]
	return a, ok
}

// Modes reports channel -> mode for every registered adapter.
func (r *Registry) Modes() map[string]string {
	m := make(map[string]string, len(r.adapters))
	for ch, a := range r.adapters {
		m[ch] = a.Mode()
	}
	return m
}

// Channels returns the registered channel names in sorted order.
func (r *Registry) Channels() []string {
	chs := make([]string, 0, len(r.adapters))
	for ch := range r.adapters {
		chs = append(chs, ch)
	}
	sort.Strings(chs)
	return chs
}
