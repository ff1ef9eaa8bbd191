// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package protocol

import "strings"

// NAK reasons carried in failure replies. Business failures only; the host
// treats every NAK as a delivered outcome, not an infrastructure error.
const (
	NakReadOnly          = "ReadOnly"
	NakUnknownParam      = "UnknownParam"
	NakOutOfRange        = "OutOfRange"
	NakDeviceDown        = "DeviceDown"
	NakDeviceComm        = "DeviceComm"
	NakDeviceBadResponse = "DeviceBadResponse"
	NakDeviceRejected    = "DeviceRejected"
	NakUnknownDevice     = "UnknownDevice"
	NakMappingMissing    = "MappingMissing"
	NakParseError        = "ParseError"
)

// FormatValue renders a read-success reply.
func FormatValue(pkey, value string) string {
	return pkey + "=" + value
}

// FormatAck renders a write-success reply.
func FormatAck(pkey, value string) string {
	return "ACK_" + pkey + "=" + value
}

// FormatNak renders a failure reply.
func FormatNak(pkey, reason string) string {
	return pkey + "=NAK_" + reason
}

// ValidReplyShape reports whether a device reply line is one of the three
// fixed forms for the given pkey. Live adapters use it to detect devices
// answering off-protocol (NAK_DeviceBadResponse).
func ValidReplyShape(pkey, line string) bool {
	if v, ok := strings.CutPrefix(line, pkey+"="); ok {
		return v != ""
	}
	if v, ok := strings.CutPrefix(line, "ACK_"+pkey+"="); ok {
		return v != ""
	}
	return false
}

// IsNak reports whether a reply line carries a NAK and returns its reason.
func IsNak(line string) (string, bool) {
	i := strings.Index(line, "=NAK_")
	if i < 0 {
		return "", false
	}
	return line[i+len("=NAK_"):], true
}
