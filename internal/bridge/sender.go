// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/models"
	"github.com/tomtom215/fieldbridge/internal/peer"
	"github.com/tomtom215/fieldbridge/internal/store"
)

// backoffExpCap clamps the backoff exponent so the doubling cannot overflow
// while a peer stays dead for days.
const backoffExpCap = 30

// Gate reports whether deliveries may flow. Satisfied by *watchdog.Watchdog.
type Gate interface {
	IsUp() bool
}

// SenderConfig controls the outbox pusher.
type SenderConfig struct {
	// PollInterval is the sleep between empty claims and gated checks.
	// Zero means 200ms.
	PollInterval time.Duration
	// RetryBase is the first retry delay. Zero means 1s.
	RetryBase time.Duration
	// RetryCap bounds the exponential backoff. Zero means 60s.
	RetryCap time.Duration
}

// Sender is the outbox pusher loop. Strictly one delivery at a time in claim
// order; the watchdog gates it so a dead peer does not burn retry budget.
type Sender struct {
	cfg   SenderConfig
	store *store.Store
	peer  *peer.Client
	gate  Gate
	clock clockwork.Clock
}

// NewSender builds the sender loop. A nil clock means the real one.
func NewSender(cfg SenderConfig, st *store.Store, client *peer.Client, gate Gate, clock clockwork.Clock) *Sender {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = 60 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sender{cfg: cfg, store: st, peer: client, gate: gate, clock: clock}
}

// Serve implements suture.Service. It drains due outbox jobs until the
// context is cancelled; a delivery in flight at shutdown is finished first.
func (s *Sender) Serve(ctx context.Context) error {
	logging.Info().
		Dur("poll_interval", s.cfg.PollInterval).
		Dur("retry_base", s.cfg.RetryBase).
		Dur("retry_cap", s.cfg.RetryCap).
		Msg("Sender loop started")

	err := s.run(ctx)
	logging.Info().Msg("Sender loop stopped")
	return err
}

func (s *Sender) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.gate.IsUp() {
			metrics.SenderGated.Inc()
			if err := sleepCtx(ctx, s.clock, s.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		job, err := s.store.ClaimDueOutbox(ctx, s.clock.Now().Unix())
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logging.Error().Err(err).Msg("Failed to claim outbox job")
			if err := sleepCtx(ctx, s.clock, s.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}
		if job == nil {
			if err := sleepCtx(ctx, s.clock, s.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		// Detached so shutdown does not abort the delivery mid-flight.
		s.deliver(context.WithoutCancel(ctx), job)
	}
}

// deliver makes one attempt and settles the job: done on 2xx, retry with
// backoff on 408/429/5xx and transport errors, permanent on every other 4xx
// and on jobs that cannot form a request at all.
func (s *Sender) deliver(ctx context.Context, job *models.OutboxJob) {
	start := s.clock.Now()
	attempt := job.RetryCount + 1

	status, err := s.peer.Send(ctx, job)
	duration := s.clock.Since(start)

	switch {
	case errors.Is(err, peer.ErrInvalidJob):
		s.permanent(ctx, job, 0, err.Error(), attempt, duration)
	case err != nil:
		s.retry(ctx, job, 0, err.Error(), attempt, duration)
	case status >= 200 && status < 300:
		if err := s.store.MarkOutboxDone(ctx, job.ID); err != nil {
			logging.Error().Err(err).Int64("job_id", job.ID).Msg("Failed to mark job done")
			return
		}
		metrics.RecordSend("done", attempt, duration)
		logging.Debug().
			Int64("job_id", job.ID).
			Int("status", status).
			Int("attempt", attempt).
			Msg("Job delivered")
	case retryableStatus(status):
		s.retry(ctx, job, status, fmt.Sprintf("peer returned HTTP %d", status), attempt, duration)
	default:
		s.permanent(ctx, job, status, fmt.Sprintf("peer returned HTTP %d", status), attempt, duration)
	}
}

func (s *Sender) retry(ctx context.Context, job *models.OutboxJob, status int, reason string, attempt int, duration time.Duration) {
	delay := backoffDelay(s.cfg.RetryBase, s.cfg.RetryCap, attempt)
	next := s.clock.Now().Add(delay).Unix()

	if err := s.store.RescheduleOutbox(ctx, job.ID, next, status, reason); err != nil {
		logging.Error().Err(err).Int64("job_id", job.ID).Msg("Failed to reschedule job")
		return
	}
	metrics.RecordSend("retry", attempt, duration)
	logging.Warn().
		Int64("job_id", job.ID).
		Int("retry_count", attempt).
		Dur("delay", delay).
		Str("reason", reason).
		Msg("Delivery failed, retrying")
}

func (s *Sender) permanent(ctx context.Context, job *models.OutboxJob, status int, reason string, attempt int, duration time.Duration) {
	if err := s.store.MarkOutboxPermanent(ctx, job.ID, status, reason); err != nil {
		logging.Error().Err(err).Int64("job_id", job.ID).Msg("Failed to mark job permanently failed")
		return
	}
	metrics.RecordSend("permanent", attempt, duration)
	logging.Error().
		Int64("job_id", job.ID).
		Int("status", status).
		Str("reason", reason).
		Msg("Delivery failed permanently")
}

// retryableStatus reports whether the peer's status earns another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// backoffDelay returns min(limit, base * 2^(retryCount-1)).
func backoffDelay(base, limit time.Duration, retryCount int) time.Duration {
	exp := retryCount - 1
	if exp < 0 {
		exp = 0
	}
	if exp > backoffExpCap {
		exp = backoffExpCap
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(exp)))
	if d <= 0 || d > limit {
		return limit
	}
	return d
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sender) String() string { return "sender-loop" }
