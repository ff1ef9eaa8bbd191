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

	"github.com/tomtom215/fieldbridge/internal/models"
)

// inboxColumns is the scan order shared by every inbox query.
const inboxColumns = "id, created_ts, updated_ts, source, payload, idempotency_key, state, last_error"

// InsertInbox stores one accepted delivery. A non-empty idempotency key that
// already exists does not create a second row: the existing row's id is
// returned with inserted=false. Empty keys always insert.
func (s *Store) InsertInbox(ctx context.Context, source, payload, idemKey string) (int64, bool, error) {
	now := s.now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inbox_messages (created_ts, updated_ts, source, payload, idempotency_key)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		now, now, source, payload, idemKey)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert inbox message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("failed to get insert id: %w", err)
		}
		return id, true, nil
	}

	// Duplicate key: surface the row it collided with.
	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM inbox_messages WHERE idempotency_key = ?", idemKey).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up duplicate inbox message: %w", err)
	}
	return id, false, nil
}

// ClaimNextInbox atomically takes the oldest pending message and flips it to
// processing so a crashed run can be detected and requeued. Returns nil when
// the queue is empty.
func (s *Store) ClaimNextInbox(ctx context.Context) (*models.InboxMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE inbox_messages
		 SET state = ?, updated_ts = ?
		 WHERE id = (SELECT id FROM inbox_messages WHERE state = ? ORDER BY id ASC LIMIT 1)
		 RETURNING `+inboxColumns,
		models.InboxStateProcessing, s.now(), models.InboxStatePending)

	msg, err := scanInbox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim inbox message: %w", err)
	}
	return msg, nil
}

// MarkInboxDone moves a claimed message to its terminal done state.
func (s *Store) MarkInboxDone(ctx context.Context, id int64) error {
	return s.setInboxState(ctx, id, models.InboxStateDone, "")
}

// MarkInboxFailed moves a claimed message to failed, recording why.
func (s *Store) MarkInboxFailed(ctx context.Context, id int64, msg string) error {
	return s.setInboxState(ctx, id, models.InboxStateFailed, msg)
}

// ReleaseInbox puts a claimed message back to pending, recording the error
// that interrupted it. The router uses this when the commit path fails and
// the message deserves another attempt in this process lifetime.
func (s *Store) ReleaseInbox(ctx context.Context, id int64, msg string) error {
	return s.setInboxState(ctx, id, models.InboxStatePending, msg)
}

func (s *Store) setInboxState(ctx context.Context, id int64, state, lastError string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inbox_messages SET state = ?, last_error = ?, updated_ts = ? WHERE id = ?",
		state, lastError, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update inbox message %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("inbox message %d: %w", id, ErrNotFound)
	}
	return nil
}

// RequeueProcessing reverts every processing row to pending. Called once at
// startup: processing rows can only be crash leftovers because claims and
// completions happen in a single process.
func (s *Store) RequeueProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inbox_messages SET state = ?, updated_ts = ? WHERE state = ?",
		models.InboxStatePending, s.now(), models.InboxStateProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue processing messages: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

// GetInbox retrieves one message by id.
func (s *Store) GetInbox(ctx context.Context, id int64) (*models.InboxMessage, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+inboxColumns+" FROM inbox_messages WHERE id = ?", id)

	msg, err := scanInbox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inbox message %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inbox message: %w", err)
	}
	return msg, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInbox(row scanner) (*models.InboxMessage, error) {
	msg := &models.InboxMessage{}
	err := row.Scan(&msg.ID, &msg.CreatedTS, &msg.UpdatedTS, &msg.Source,
		&msg.Payload, &msg.IdempotencyKey, &msg.State, &msg.LastError)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
