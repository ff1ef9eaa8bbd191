// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/models"
)

// EnqueueRequest is the body of POST /api/outbox/enqueue. URL wins over
// Path when both are set; an empty Path targets the peer's inbox.
type EnqueueRequest struct {
	Method         string            `json:"method" validate:"omitempty,oneof=POST PUT"`
	Path           string            `json:"path" validate:"required,startswith=/"`
	URL            string            `json:"url" validate:"omitempty,url"`
	Headers        map[string]string `json:"headers"`
	Body           json.RawMessage   `json:"body"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// OutboxEnqueue handles POST /api/outbox/enqueue, the operator's escape
// hatch for hand-feeding a delivery into the durable queue. The job goes
// through the same sender loop as bridge callbacks: watchdog gating,
// retries and backoff all apply.
//
// Headers follow the callback convention: X-Idempotency-Key and
// Content-Type are filled in unless the caller already set them, and the
// outbound shared secret is attached when configured.
func (h *Handler) OutboxEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.Server.MaxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if req.Method == "" {
		req.Method = http.MethodPost
	}
	req.Method = strings.ToUpper(req.Method)
	if req.Path == "" {
		req.Path = "/api/inbox"
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Message, nil)
		return
	}

	url := req.URL
	if url == "" {
		url = strings.TrimRight(h.config.Peer.BaseURL, "/") + req.Path
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	headers := make(map[string]string, len(req.Headers)+3)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if _, ok := headers["X-Idempotency-Key"]; !ok {
		headers["X-Idempotency-Key"] = key
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/json"
	}
	if secret := h.config.Auth.OutboundSharedSecret; secret != "" {
		if _, ok := headers["X-Shared-Secret"]; !ok {
			headers["X-Shared-Secret"] = secret
		}
	}

	spec := models.OutboxJobSpec{
		URL:            url,
		Method:         req.Method,
		Headers:        headers,
		Body:           req.Body,
		IdempotencyKey: key,
	}
	if err := h.store.EnqueueOutbox(r.Context(), []models.OutboxJobSpec{spec}); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to enqueue delivery", err)
		return
	}

	logging.Info().
		Str("url", sanitizeLogValue(url)).
		Str("method", req.Method).
		Str("idempotency_key", key).
		Msg("Delivery enqueued by operator")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"idempotency_key": key,
	})
}
