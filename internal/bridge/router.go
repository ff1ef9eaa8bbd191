// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package bridge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/device"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/models"
	"github.com/tomtom215/fieldbridge/internal/protocol"
	"github.com/tomtom215/fieldbridge/internal/store"
)

// RouterConfig controls the inbox consumer.
type RouterConfig struct {
	// PollInterval is the sleep between empty claims. Zero means 100ms.
	PollInterval time.Duration
	// DeviceTimeout bounds each adapter execution. Zero means 3s.
	DeviceTimeout time.Duration
	// CallbackURL is the absolute peer endpoint reply jobs POST to,
	// peer base URL plus /api/inbox.
	CallbackURL string
	// SharedSecret is sent as X-Shared-Secret on callbacks when non-empty.
	SharedSecret string
}

// Router is the inbox consumer loop. It claims one message at a time,
// executes its commands against the device registry and commits the replies
// to the outbox in the same transaction that finishes the message, so a
// crash can duplicate work but never lose a reply.
type Router struct {
	cfg      RouterConfig
	store    *store.Store
	registry *device.Registry
	clock    clockwork.Clock
}

// NewRouter builds the router loop. A nil clock means the real one.
func NewRouter(cfg RouterConfig, st *store.Store, reg *device.Registry, clock clockwork.Clock) *Router {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.DeviceTimeout <= 0 {
		cfg.DeviceTimeout = 3 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Router{cfg: cfg, store: st, registry: reg, clock: clock}
}

// Serve implements suture.Service. It drains the inbox until the context is
// cancelled; a message in flight at shutdown is finished first.
func (r *Router) Serve(ctx context.Context) error {
	logging.Info().
		Dur("poll_interval", r.cfg.PollInterval).
		Dur("device_timeout", r.cfg.DeviceTimeout).
		Str("callback_url", r.cfg.CallbackURL).
		Msg("Router loop started")

	err := r.run(ctx)
	logging.Info().Msg("Router loop stopped")
	return err
}

func (r *Router) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := r.store.ClaimNextInbox(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logging.Error().Err(err).Msg("Failed to claim inbox message")
			if err := sleepCtx(ctx, r.clock, r.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}
		if msg == nil {
			if err := sleepCtx(ctx, r.clock, r.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		// Detached so shutdown does not strand the claimed message.
		r.process(context.WithoutCancel(ctx), msg)
	}
}

// process runs one claimed message through extract, parse, dispatch and
// commit. Every path ends in done or failed; nothing is silently dropped.
func (r *Router) process(ctx context.Context, msg *models.InboxMessage) {
	start := r.clock.Now()

	text := strings.TrimSpace(protocol.ExtractCommandText(msg.Payload))
	if text == "" {
		r.fail(ctx, msg, "no command text in payload", start)
		return
	}

	var jobs []models.OutboxJobSpec
	for _, line := range protocol.SplitCommands(text) {
		reply, channel, dropped := r.runOne(ctx, line)
		r.logTraffic(ctx, channel, models.TrafficIn, line, msg.IdempotencyKey)
		if dropped {
			continue
		}
		metrics.RecordCommand(channel, replyKind(reply))
		r.logTraffic(ctx, channel, models.TrafficOut, reply, msg.IdempotencyKey)

		job, err := r.callbackJob(reply, msg.IdempotencyKey)
		if err != nil {
			r.fail(ctx, msg, "build callback: "+err.Error(), start)
			return
		}
		jobs = append(jobs, job)
	}

	var err error
	if len(jobs) == 0 {
		err = r.store.MarkInboxDone(ctx, msg.ID)
	} else {
		err = r.store.EnqueueOutboxAndFinishInbox(ctx, msg.ID, jobs)
	}
	if err != nil {
		r.fail(ctx, msg, "commit: "+err.Error(), start)
		return
	}

	metrics.RecordMessageProcessed("done", r.clock.Since(start))
	logging.Debug().
		Int64("inbox_id", msg.ID).
		Int("replies", len(jobs)).
		Msg("Inbox message processed")
}

// runOne executes a single command line. It returns the reply, the channel
// it was routed to, and whether the line was dropped (unparseable with no
// recoverable key).
func (r *Router) runOne(ctx context.Context, line string) (reply, channel string, dropped bool) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		var pe *protocol.ParseError
		if errors.As(err, &pe) && pe.BestKey != "" {
			channel = protocol.RouteChannel(pe.BestKey[:3])
			return protocol.FormatNak(pe.BestKey, protocol.NakParseError), channel, false
		}
		logging.Warn().Str("line", line).Msg("Dropped unparseable command")
		return "", protocol.ChannelRaspi, true
	}

	channel = protocol.RouteChannel(cmd.PType)
	if !cmd.Read && protocol.IsPushOnly(cmd.PType) {
		return protocol.FormatNak(cmd.PKey(), protocol.NakReadOnly), channel, false
	}

	execCtx, cancel := context.WithTimeout(ctx, r.cfg.DeviceTimeout)
	defer cancel()
	return r.registry.Execute(execCtx, channel, cmd), channel, false
}

// callbackJob turns one reply line into a durable POST back to the host.
func (r *Router) callbackJob(reply, correlationID string) (models.OutboxJobSpec, error) {
	body, err := json.Marshal(struct {
		Msg    string `json:"msg"`
		Source string `json:"source"`
	}{Msg: reply, Source: callbackSource})
	if err != nil {
		return models.OutboxJobSpec{}, err
	}

	key := uuid.NewString()
	headers := map[string]string{
		"Content-Type":      "application/json",
		"X-Idempotency-Key": key,
	}
	if correlationID != "" {
		headers["X-Correlation-Id"] = correlationID
	}
	if r.cfg.SharedSecret != "" {
		headers["X-Shared-Secret"] = r.cfg.SharedSecret
	}

	return models.OutboxJobSpec{
		URL:            r.cfg.CallbackURL,
		Method:         http.MethodPost,
		Headers:        headers,
		Body:           body,
		IdempotencyKey: key,
		CorrelationID:  correlationID,
	}, nil
}

func (r *Router) fail(ctx context.Context, msg *models.InboxMessage, reason string, start time.Time) {
	logging.Error().
		Int64("inbox_id", msg.ID).
		Str("reason", reason).
		Msg("Inbox message failed")
	if err := r.store.MarkInboxFailed(ctx, msg.ID, reason); err != nil {
		logging.Error().Err(err).Int64("inbox_id", msg.ID).Msg("Failed to mark inbox message failed")
	}
	metrics.RecordMessageProcessed("failed", r.clock.Since(start))
}

func (r *Router) logTraffic(ctx context.Context, channel, direction, message, correlation string) {
	if err := r.store.AppendTraffic(ctx, channel, direction, message, correlation); err != nil {
		logging.Warn().Err(err).Msg("Failed to append traffic log entry")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *Router) String() string { return "router-loop" }
