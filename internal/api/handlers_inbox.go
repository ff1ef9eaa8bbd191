// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package api

import (
	"crypto/hmac"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
)

// IngressInbox handles POST /api/inbox, the host-facing delivery endpoint.
//
// The body is stored verbatim as the message payload; the router loop parses
// it later, so a malformed command is accepted here and NAKed there. The
// X-Idempotency-Key header dedupes redeliveries: a repeated key answers
// {"stored": false} with 200 so the host stops retrying. An empty key never
// dedupes.
//
// The secret check lives here rather than in middleware so rejects land in
// the ingress counters next to stored and duplicate.
func (h *Handler) IngressInbox(w http.ResponseWriter, r *http.Request) {
	if secret := h.config.Auth.SharedSecret; secret != "" {
		provided := r.Header.Get("X-Shared-Secret")
		if !hmac.Equal([]byte(provided), []byte(secret)) {
			metrics.RecordIngress("unauthorized")
			logging.Warn().
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected inbox delivery with missing or wrong shared secret")
			respondError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.Server.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordIngress("rejected")
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		metrics.RecordIngress("rejected")
		respondError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	key := r.Header.Get("X-Idempotency-Key")
	source := extractSource(r.Header.Get("Content-Type"), body)

	ctx := logging.ContextWithCorrelationID(r.Context(), key)
	id, inserted, err := h.store.InsertInbox(ctx, source, string(body), key)
	if err != nil {
		metrics.RecordIngress("rejected")
		respondError(w, http.StatusInternalServerError, "failed to store message", err)
		return
	}

	if inserted {
		metrics.RecordIngress("stored")
		logging.Ctx(ctx).Info().
			Int64("inbox_id", id).
			Str("source", sanitizeLogValue(source)).
			Int("bytes", len(body)).
			Msg("Inbox delivery stored")
	} else {
		metrics.RecordIngress("duplicate")
		logging.Ctx(ctx).Debug().
			Str("source", sanitizeLogValue(source)).
			Msg("Inbox delivery deduplicated")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"stored":          inserted,
		"idempotency_key": key,
	})
}

// extractSource pulls the optional "source" field from a JSON object body.
// Non-JSON content types, non-object bodies and parse failures all yield an
// empty source; the delivery is still accepted.
func extractSource(contentType string, body []byte) string {
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return ""
	}

	var envelope struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Source
}
