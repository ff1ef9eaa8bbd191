// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/models"
)

// DefaultStatsInterval is how often the queue depth gauges are refreshed
// when no interval is configured.
const DefaultStatsInterval = 15 * time.Second

// QueueCounter is the slice of the store the stats service needs.
//
// Satisfied by *store.Store.
type QueueCounter interface {
	Counts(ctx context.Context) (models.QueueCounts, error)
}

// QueueStatsService periodically refreshes the queue depth gauges from the
// store. The ingress handler and the loops move rows between states far more
// often than anyone scrapes /metrics, so the gauges are sampled on a timer
// instead of updated per operation. The same tick refreshes the process
// uptime gauge.
//
// The poll doubles as a liveness check on the database file: a failing
// refresh is logged with the underlying error.
//
// Example usage:
//
//	svc := services.NewQueueStatsService(st, 0, nil)
//	tree.AddDataService(svc)
type QueueStatsService struct {
	store    QueueCounter
	interval time.Duration
	clock    clockwork.Clock
	start    time.Time
	name     string
}

// NewQueueStatsService creates a new queue stats poller.
//
// interval <= 0 falls back to DefaultStatsInterval. A nil clock uses the
// real clock; tests inject a fake one.
func NewQueueStatsService(store QueueCounter, interval time.Duration, clock clockwork.Clock) *QueueStatsService {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QueueStatsService{
		store:    store,
		interval: interval,
		clock:    clock,
		start:    clock.Now(),
		name:     "queue-stats",
	}
}

// Serve implements suture.Service. It refreshes the gauges once immediately
// so they are populated before the first scrape, then on every tick until
// the context is canceled.
func (s *QueueStatsService) Serve(ctx context.Context) error {
	s.refresh(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.refresh(ctx)
		}
	}
}

// refresh samples both queues and pushes every state onto its gauge.
// Errors are logged, not returned: a transient SQLITE_BUSY during a count
// should not churn the service through restart backoff.
func (s *QueueStatsService) refresh(ctx context.Context) {
	metrics.AppUptime.Set(s.clock.Since(s.start).Seconds())

	counts, err := s.store.Counts(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Queue stats refresh failed")
		return
	}

	metrics.SetQueueDepth("inbox", "pending", counts.InboxPending)
	metrics.SetQueueDepth("inbox", "processing", counts.InboxProcessing)
	metrics.SetQueueDepth("inbox", "done", counts.InboxDone)
	metrics.SetQueueDepth("inbox", "failed", counts.InboxFailed)
	metrics.SetQueueDepth("outbox", "pending", counts.OutboxPending)
	metrics.SetQueueDepth("outbox", "done", counts.OutboxDone)
	metrics.SetQueueDepth("outbox", "failed_permanent", counts.OutboxFailed)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *QueueStatsService) String() string {
	return s.name
}
