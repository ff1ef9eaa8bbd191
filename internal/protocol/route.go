// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package protocol

import "strings"

// Device channel names. ChannelRaspi is the bridge itself; commands no
// device claims land there.
const (
	ChannelVJ6530 = "vj6530"
	ChannelVJ3350 = "vj3350"
	ChannelESPPLC = "esp-plc"
	ChannelRaspi  = "raspi"
)

// Channels lists every routable channel, in display order.
var Channels = []string{ChannelVJ6530, ChannelVJ3350, ChannelESPPLC, ChannelRaspi}

// RouteChannel maps a PTYPE to its device channel by two-letter prefix.
// Deterministic and configuration-free: TT* -> vj6530, LS* -> vj3350,
// MA* -> esp-plc, everything else -> raspi.
func RouteChannel(ptype string) string {
	if len(ptype) < 2 {
		return ChannelRaspi
	}
	switch strings.ToUpper(ptype[:2]) {
	case "TT":
		return ChannelVJ6530
	case "LS":
		return ChannelVJ3350
	case "MA":
		return ChannelESPPLC
	default:
		return ChannelRaspi
	}
}
