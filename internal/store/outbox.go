// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fieldbridge/internal/models"
)

const outboxColumns = `id, created_ts, updated_ts, url, method, headers, body,
	idempotency_key, correlation_id, retry_count, next_attempt_ts, state, last_status, last_error`

// EnqueueOutbox inserts a group of jobs in one transaction so readers see
// either none or all of them.
func (s *Store) EnqueueOutbox(ctx context.Context, jobs []models.OutboxJobSpec) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := s.insertOutboxJobs(ctx, tx, jobs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outbox transaction: %w", err)
	}
	return nil
}

// EnqueueOutboxAndFinishInbox is the router loop's commit point: the whole
// reply group and the inbox done flip land in one transaction. A crash
// before commit leaves the inbox row processing, so it is requeued at the
// next startup; replies may then be produced twice but are never lost.
func (s *Store) EnqueueOutboxAndFinishInbox(ctx context.Context, inboxID int64, jobs []models.OutboxJobSpec) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := s.insertOutboxJobs(ctx, tx, jobs); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE inbox_messages SET state = ?, last_error = '', updated_ts = ? WHERE id = ?",
		models.InboxStateDone, s.now(), inboxID)
	if err != nil {
		return fmt.Errorf("failed to finish inbox message %d: %w", inboxID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("inbox message %d: %w", inboxID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reply group: %w", err)
	}
	return nil
}

// insertOutboxJobs inserts the specs inside tx. Jobs become due immediately
// (next_attempt_ts = now); a spec without an idempotency key gets a fresh
// uuid so the peer can always deduplicate redeliveries.
func (s *Store) insertOutboxJobs(ctx context.Context, tx *sql.Tx, jobs []models.OutboxJobSpec) error {
	if len(jobs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outbox_jobs
		 (created_ts, updated_ts, url, method, headers, body, idempotency_key, correlation_id, next_attempt_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare outbox insert: %w", err)
	}
	defer closeQuietly(stmt)

	now := s.now()
	for _, spec := range jobs {
		method := strings.ToUpper(strings.TrimSpace(spec.Method))
		if method == "" {
			method = "POST"
		}

		headers := "{}"
		if len(spec.Headers) > 0 {
			encoded, err := json.Marshal(spec.Headers)
			if err != nil {
				return fmt.Errorf("failed to encode outbox headers: %w", err)
			}
			headers = string(encoded)
		}

		body := spec.Body
		if body == nil {
			body = []byte{}
		}

		idemKey := spec.IdempotencyKey
		if idemKey == "" {
			idemKey = uuid.NewString()
		}

		_, err := stmt.ExecContext(ctx, now, now, spec.URL, method, headers, body,
			idemKey, spec.CorrelationID, now)
		if err != nil {
			return fmt.Errorf("failed to insert outbox job: %w", err)
		}
	}
	return nil
}

// ClaimDueOutbox returns the next pending job whose next_attempt_ts has
// passed, in strict (next_attempt_ts, retry_count, created_ts, id) order.
// The single sender owns the job until it reports an outcome; there is no
// in-flight state. Returns nil when nothing is due.
func (s *Store) ClaimDueOutbox(ctx context.Context, now int64) (*models.OutboxJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+outboxColumns+`
		 FROM outbox_jobs
		 WHERE state = ? AND next_attempt_ts <= ?
		 ORDER BY next_attempt_ts ASC, retry_count ASC, created_ts ASC, id ASC
		 LIMIT 1`,
		models.OutboxStatePending, now)

	job, err := scanOutbox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim outbox job: %w", err)
	}
	return job, nil
}

// MarkOutboxDone records a 2xx delivery.
func (s *Store) MarkOutboxDone(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE outbox_jobs SET state = ?, last_error = '', updated_ts = ? WHERE id = ?",
		models.OutboxStateDone, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox job %d done: %w", id, err)
	}
	return outboxAffected(res, id)
}

// RescheduleOutbox records a retryable failure: bumps retry_count and parks
// the job until nextTS. The job stays pending so the claim ordering keeps
// honoring the backoff schedule.
func (s *Store) RescheduleOutbox(ctx context.Context, id int64, nextTS int64, lastStatus int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbox_jobs
		 SET retry_count = retry_count + 1, next_attempt_ts = ?, last_status = ?, last_error = ?, updated_ts = ?
		 WHERE id = ?`,
		nextTS, lastStatus, errMsg, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox job %d: %w", id, err)
	}
	return outboxAffected(res, id)
}

// MarkOutboxPermanent parks a job that must not be retried (4xx other than
// 408/429, or an unusable URL).
func (s *Store) MarkOutboxPermanent(ctx context.Context, id int64, lastStatus int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE outbox_jobs SET state = ?, last_status = ?, last_error = ?, updated_ts = ? WHERE id = ?",
		models.OutboxStateFailedPermanent, lastStatus, errMsg, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox job %d permanent: %w", id, err)
	}
	return outboxAffected(res, id)
}

// GetOutbox retrieves one job by id.
func (s *Store) GetOutbox(ctx context.Context, id int64) (*models.OutboxJob, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+outboxColumns+" FROM outbox_jobs WHERE id = ?", id)

	job, err := scanOutbox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("outbox job %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get outbox job: %w", err)
	}
	return job, nil
}

// ListOutboxByCorrelation returns all jobs carrying the given correlation id
// in insertion order. Used by tests and the status surface to follow a
// request through to its replies.
func (s *Store) ListOutboxByCorrelation(ctx context.Context, correlationID string) ([]*models.OutboxJob, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+outboxColumns+" FROM outbox_jobs WHERE correlation_id = ? ORDER BY id ASC",
		correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.OutboxJob
	for rows.Next() {
		job, err := scanOutbox(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox jobs: %w", err)
	}
	return jobs, nil
}

func scanOutbox(row scanner) (*models.OutboxJob, error) {
	job := &models.OutboxJob{}
	var headers string
	err := row.Scan(&job.ID, &job.CreatedTS, &job.UpdatedTS, &job.URL, &job.Method,
		&headers, &job.Body, &job.IdempotencyKey, &job.CorrelationID,
		&job.RetryCount, &job.NextAttemptTS, &job.State, &job.LastStatus, &job.LastError)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &job.Headers); err != nil {
		return nil, fmt.Errorf("failed to decode outbox headers: %w", err)
	}
	return job, nil
}

func outboxAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outbox job %d: %w", id, ErrNotFound)
	}
	return nil
}

// rollbackQuietly rolls a transaction back ignoring the error; after a
// successful Commit the rollback is a no-op that returns sql.ErrTxDone.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
