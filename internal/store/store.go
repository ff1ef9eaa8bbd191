// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomtom215/fieldbridge/internal/models"
)

// dsnOptions are appended to every database path. WAL keeps readers and the
// single logical writer from blocking each other; busy_timeout absorbs lock
// contention between the ingress handler and the two loops.
const dsnOptions = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

const schema = `
CREATE TABLE IF NOT EXISTS inbox_messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_ts      INTEGER NOT NULL,
	updated_ts      INTEGER NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	payload         TEXT NOT NULL,
	idempotency_key TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT 'pending',
	last_error      TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_inbox_dedupe
	ON inbox_messages(idempotency_key) WHERE idempotency_key != '';
CREATE INDEX IF NOT EXISTS idx_inbox_state ON inbox_messages(state, id);

CREATE TABLE IF NOT EXISTS outbox_jobs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_ts      INTEGER NOT NULL,
	updated_ts      INTEGER NOT NULL,
	url             TEXT NOT NULL,
	method          TEXT NOT NULL DEFAULT 'POST',
	headers         TEXT NOT NULL DEFAULT '{}',
	body            BLOB NOT NULL,
	idempotency_key TEXT NOT NULL DEFAULT '',
	correlation_id  TEXT NOT NULL DEFAULT '',
	retry_count     INTEGER NOT NULL DEFAULT 0,
	next_attempt_ts INTEGER NOT NULL DEFAULT 0,
	state           TEXT NOT NULL DEFAULT 'pending',
	last_status     INTEGER NOT NULL DEFAULT 0,
	last_error      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outbox_due
	ON outbox_jobs(state, next_attempt_ts, retry_count, created_ts, id);

CREATE TABLE IF NOT EXISTS params (
	pkey       TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	min_v      TEXT NOT NULL DEFAULT '',
	max_v      TEXT NOT NULL DEFAULT '',
	default_v  TEXT NOT NULL DEFAULT '',
	rw         TEXT NOT NULL DEFAULT 'RW',
	unit       TEXT NOT NULL DEFAULT '',
	scale      REAL NOT NULL DEFAULT 1,
	offset_v   REAL NOT NULL DEFAULT 0,
	updated_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS param_values (
	pkey       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS traffic_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ts          INTEGER NOT NULL,
	channel     TEXT NOT NULL,
	direction   TEXT NOT NULL,
	message     TEXT NOT NULL,
	correlation TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_traffic_channel_id ON traffic_log(channel, id);
`

// Config holds store configuration.
type Config struct {
	// Path is the SQLite database file. The parent directory is created if
	// it does not exist.
	Path string

	// LogKeep bounds the traffic log to the newest N rows per channel.
	// Zero or negative selects the default of 5000.
	LogKeep int
}

const defaultLogKeep = 5000

// Store is the durable heart of the bridge: the inbox and outbox queues,
// parameter metadata and values, and the rolling traffic log, all in one
// SQLite file so a reply group and its inbox acknowledgement can commit in
// a single transaction.
type Store struct {
	db      *sql.DB
	clock   clockwork.Clock
	logKeep int
}

// Open opens (creating if necessary) the database at cfg.Path and ensures
// the schema exists. A nil clock selects the real clock; tests inject a
// fake one so timestamps and due-time queries are deterministic.
func Open(cfg Config, clock clockwork.Clock) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logKeep := cfg.LogKeep
	if logKeep <= 0 {
		logKeep = defaultLogKeep
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, clock: clock, logKeep: logKeep}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current unix time from the injected clock.
func (s *Store) now() int64 {
	return s.clock.Now().Unix()
}

// Counts returns a census of both queues for the status endpoint and the
// depth gauges.
func (s *Store) Counts(ctx context.Context) (models.QueueCounts, error) {
	var counts models.QueueCounts

	inbox, err := s.countByState(ctx, "SELECT state, COUNT(*) FROM inbox_messages GROUP BY state")
	if err != nil {
		return counts, fmt.Errorf("failed to count inbox: %w", err)
	}
	counts.InboxPending = inbox[models.InboxStatePending]
	counts.InboxProcessing = inbox[models.InboxStateProcessing]
	counts.InboxDone = inbox[models.InboxStateDone]
	counts.InboxFailed = inbox[models.InboxStateFailed]

	outbox, err := s.countByState(ctx, "SELECT state, COUNT(*) FROM outbox_jobs GROUP BY state")
	if err != nil {
		return counts, fmt.Errorf("failed to count outbox: %w", err)
	}
	counts.OutboxPending = outbox[models.OutboxStatePending]
	counts.OutboxDone = outbox[models.OutboxStateDone]
	counts.OutboxFailed = outbox[models.OutboxStateFailedPermanent]

	return counts, nil
}

// countByState executes a GROUP BY state query and returns state -> count.
func (s *Store) countByState(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		result[state] = count
	}
	return result, rows.Err()
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
