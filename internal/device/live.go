// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/protocol"
)

// LineExchanger performs one command/reply round trip on a real device
// transport (TCP line protocol, serial). Dialect encoding lives behind this
// interface; the adapter only sees protocol-shaped reply lines.
type LineExchanger interface {
	Exchange(ctx context.Context, cmd protocol.Command) (string, error)
}

// ValueMirror receives device-confirmed values so status reads and the
// simulated fallback stay close to the real device state.
type ValueMirror interface {
	ApplyDeviceValue(ctx context.Context, pkey, value string) error
}

// Live executes commands against a real device through a circuit breaker.
// An open breaker answers NAK_DeviceDown without touching the transport, so
// a dead device cannot stall the router loop for the other channels.
type Live struct {
	channel string
	exch    LineExchanger
	mirror  ValueMirror
	cb      *gobreaker.CircuitBreaker[string]
	name    string
}

// NewLive builds a live adapter for one channel. mirror may be nil.
//
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewLive(channel string, exch LineExchanger, mirror ValueMirror) *Live {
	cbName := "device-" + channel

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Str("channel", channel).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("name", name).Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Live{
		channel: channel,
		exch:    exch,
		mirror:  mirror,
		cb:      cb,
		name:    cbName,
	}
}

// Channel returns the device channel this adapter serves.
func (l *Live) Channel() string { return l.channel }

// Mode reports the adapter mode for the status endpoint.
func (l *Live) Mode() string { return ModeLive }

// Execute performs one round trip. Transport failures and breaker rejections
// come back as NAK replies; a device-signaled NAK for the same pkey passes
// through untouched.
func (l *Live) Execute(ctx context.Context, cmd protocol.Command) string {
	pkey := cmd.PKey()

	line, err := l.exchange(ctx, cmd)
	if err != nil {
		return protocol.FormatNak(pkey, classifyExchangeError(err))
	}

	line = strings.TrimSpace(line)
	if !protocol.ValidReplyShape(pkey, line) {
		logging.Warn().Str("channel", l.channel).Str("pkey", pkey).Str("reply", line).
			Msg("Device reply failed shape validation")
		return protocol.FormatNak(pkey, protocol.NakDeviceBadResponse)
	}

	l.mirrorReply(ctx, pkey, line)
	return line
}

// exchange runs the breaker-guarded round trip and keeps the breaker
// metrics in step with every outcome.
func (l *Live) exchange(ctx context.Context, cmd protocol.Command) (string, error) {
	line, err := l.cb.Execute(func() (string, error) {
		return l.exch.Exchange(ctx, cmd)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(l.name, "rejected").Inc()
			logging.Warn().Err(err).Str("channel", l.channel).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(l.name, "failure").Inc()

			counts := l.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(l.name).Set(float64(counts.ConsecutiveFailures))
		}
		return "", err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(l.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(l.name).Set(0)

	return line, nil
}

// mirrorReply persists the device-confirmed value behind value and ACK
// replies. NAKs carry no value. Mirror failures are logged and swallowed:
// the device answered, so the host still gets its reply.
func (l *Live) mirrorReply(ctx context.Context, pkey, line string) {
	if l.mirror == nil {
		return
	}
	if _, isNak := protocol.IsNak(line); isNak {
		return
	}

	value := line[strings.IndexByte(line, '=')+1:]
	if err := l.mirror.ApplyDeviceValue(ctx, pkey, value); err != nil {
		logging.Warn().Err(err).Str("channel", l.channel).Str("pkey", pkey).
			Msg("Failed to mirror device value")
	}
}

// classifyExchangeError maps transport errors to NAK reasons. A device that
// cannot be reached at all reads as down; a device that answers garbage or
// drops the connection mid-exchange reads as a comm failure.
func classifyExchangeError(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return protocol.NakDeviceDown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return protocol.NakDeviceDown
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return protocol.NakDeviceDown
	}
	return protocol.NakDeviceComm
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
