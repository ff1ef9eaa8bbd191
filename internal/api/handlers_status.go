// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package api

import (
	"net/http"
	"time"
)

// defaultTrafficTail is how many recent traffic entries the status view
// returns when the caller does not ask for a specific count.
const defaultTrafficTail = 50

// Status handles GET /api/status, the operator's one-call view of the
// bridge: queue census, watchdog verdict, per-channel adapter mode and the
// recent traffic tail. The traffic count is tunable with ?limit=N (clamped
// by the store).
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Counts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read queue state", err)
		return
	}

	limit := getIntParam(r, "limit", defaultTrafficTail)
	traffic, err := h.store.RecentTraffic(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read traffic log", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":            true,
		"uptime_s":      time.Since(h.startTime).Seconds(),
		"peer_base_url": h.config.Peer.BaseURL,
		"queues":        counts,
		"watchdog":      h.watchdog.Snapshot(),
		"devices":       h.devices.Modes(),
		"traffic":       traffic,
	})
}

// ConfigView handles GET /api/config. It returns the running configuration
// with both shared secrets masked; an empty secret stays empty so the
// operator can see that the check is disabled.
func (h *Handler) ConfigView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.config.Redacted())
}
