// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/fieldbridge/internal/config"
	"github.com/tomtom215/fieldbridge/internal/device"
	"github.com/tomtom215/fieldbridge/internal/store"
	"github.com/tomtom215/fieldbridge/internal/watchdog"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, liveness (this file)
//   - handlers_inbox.go: ingress path
//   - handlers_status.go: status and config views
//   - handlers_outbox.go: manual outbox enqueue
type Handler struct {
	config    *config.Config
	store     *store.Store
	watchdog  *watchdog.Watchdog
	devices   *device.Registry
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// The store is the durable inbox/outbox; the watchdog supplies the peer
// verdict for the status view; the device registry reports per-channel
// adapter modes. All are required.
//
// Example:
//
//	handler := api.NewHandler(cfg, st, wd, registry)
//	router := api.NewRouter(handler, api.NewChiMiddleware(nil))
//	http.ListenAndServe(cfg.Server.ListenAddr, router.SetupChi())
func NewHandler(cfg *config.Config, st *store.Store, wd *watchdog.Watchdog, devices *device.Registry) *Handler {
	return &Handler{
		config:    cfg,
		store:     st,
		watchdog:  wd,
		devices:   devices,
		startTime: time.Now(),
	}
}

// Health handles liveness checks. It answers {"ok": true} whenever the
// process is up, regardless of peer or device state; degraded details live
// in /api/status. No auth so dumb probes (systemd, the host's own watchdog)
// can hit it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}
