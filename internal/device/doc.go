// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

/*
Package device executes parsed commands against shop-floor device channels.

Every channel (esp-plc, vj3350, vj6530, raspi) is served by an Adapter that
turns a command into exactly one reply line. Adapters never return errors:
anything that goes wrong on the device side becomes a NAK reply, so the
router loop can treat adapter output as final.

Two adapter kinds exist. The Simulator answers from the parameter store and
is the default for every channel; it is what runs on a bench without real
hardware, and the raspi loopback channel always uses it. The Live adapter
drives a real transport through a LineExchanger and guards it with a circuit
breaker so a dead device degrades to fast NAK_DeviceDown replies instead of
tying up the loop in timeouts.

TCPLine is the stock LineExchanger: one newline-terminated command line per
TCP connection, one reply line back. Vendor dialects that need different
framing implement LineExchanger themselves.

The Registry maps channel names to adapters and answers NAK_UnknownDevice
for channels nothing is registered on.
*/
package device
