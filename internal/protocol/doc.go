// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package protocol implements the Microtom command-line grammar: parsing,
PID normalization, prefix routing and reply formatting.

The package is pure (no I/O, no logging) so both bridge loops and tests can
use it without setup.

Command Grammar:

	line   := WS* PTYPE PID WS* '=' WS* VALUE WS* EOL
	PTYPE  := three ASCII letters, normalized to upper case
	PID    := one or more of [0-9A-Za-z_]
	VALUE  := '?' | '-'? [0-9A-Za-z_.]+

Digits-only PIDs are zero-padded to a per-PTYPE width (TTP to 5, the
telemetry and setpoint types to 4) before the business key PKEY = PTYPE||PID
is formed. Whitespace inside any token rejects the line.

Routing is by PTYPE prefix: TT* to vj6530, LS* to vj3350, MA* to esp-plc,
anything else to the bridge's own raspi channel.

Replies are fixed-form lines:

	<pkey>=<value>        read success
	ACK_<pkey>=<value>    write success
	<pkey>=NAK_<reason>   failure (see the Nak* constants)
*/
package protocol
