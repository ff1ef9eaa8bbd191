// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package bridge holds the two supervised queue loops: the Router drains the
// inbox through the device adapters and owes each reply to the outbox, the
// Sender drains the outbox to the Microtom host. Both are single-threaded on
// purpose; ordering guarantees come from the queues, not from locking.
package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/protocol"
)

// callbackSource identifies the bridge in reply callbacks and traffic rows.
const callbackSource = "raspi"

// sleepCtx waits d on the injected clock, returning early with the context
// error on cancellation.
func sleepCtx(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// replyKind classifies a reply line for metrics: nak, ack or value.
func replyKind(line string) string {
	if _, ok := protocol.IsNak(line); ok {
		return "nak"
	}
	if strings.HasPrefix(line, "ACK_") {
		return "ack"
	}
	return "value"
}
