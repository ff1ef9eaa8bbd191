// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"context"
	"errors"

	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/protocol"
	"github.com/tomtom215/fieldbridge/internal/store"
)

// ParamStore is the slice of the store the simulation adapter needs.
type ParamStore interface {
	EffectiveValue(ctx context.Context, pkey string) (string, bool, error)
	SetParamValue(ctx context.Context, pkey, value string) error
}

// Simulator answers commands from the parameter store instead of device I/O.
// Values written through it persist, so a process restart keeps the shop
// floor's simulated state.
type Simulator struct {
	channel string
	store   ParamStore
	seeds   map[string]string
}

// NewSimulator builds a simulation adapter for one channel. seeds provides
// per-deployment read values for keys that have neither a stored value nor a
// metadata default; it may be nil.
func NewSimulator(channel string, st ParamStore, seeds map[string]string) *Simulator {
	return &Simulator{channel: channel, store: st, seeds: seeds}
}

// Channel returns the device channel this adapter serves.
func (s *Simulator) Channel() string { return s.channel }

// Mode reports the adapter mode for the status endpoint.
func (s *Simulator) Mode() string { return ModeSimulation }

// Execute answers one command. Reads walk the value chain
// stored value -> metadata default -> seed -> "0"; writes validate against
// metadata when present and persist.
func (s *Simulator) Execute(ctx context.Context, cmd protocol.Command) string {
	if cmd.Read {
		return s.read(ctx, cmd)
	}
	return s.write(ctx, cmd)
}

func (s *Simulator) read(ctx context.Context, cmd protocol.Command) string {
	pkey := cmd.PKey()

	value, ok, err := s.store.EffectiveValue(ctx, pkey)
	if err != nil {
		logging.Error().Err(err).Str("channel", s.channel).Str("pkey", pkey).
			Msg("Simulated read failed against the store")
		return protocol.FormatNak(pkey, protocol.NakDeviceComm)
	}
	if !ok {
		value = s.seeds[pkey]
		if value == "" {
			value = "0"
		}
	}
	return protocol.FormatValue(pkey, value)
}

func (s *Simulator) write(ctx context.Context, cmd protocol.Command) string {
	pkey := cmd.PKey()

	err := s.store.SetParamValue(ctx, pkey, cmd.Value)
	switch {
	case err == nil:
		return protocol.FormatAck(pkey, cmd.Value)
	case errors.Is(err, store.ErrReadOnly):
		return protocol.FormatNak(pkey, protocol.NakReadOnly)
	case errors.Is(err, store.ErrOutOfRange):
		return protocol.FormatNak(pkey, protocol.NakOutOfRange)
	default:
		logging.Error().Err(err).Str("channel", s.channel).Str("pkey", pkey).
			Msg("Simulated write failed against the store")
		return protocol.FormatNak(pkey, protocol.NakDeviceComm)
	}
}
