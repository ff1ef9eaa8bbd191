// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package store persists everything the bridge must not lose: the inbox of
// accepted Microtom deliveries, the outbox of replies owed back, parameter
// metadata and last-written values, and a rolling per-channel traffic log.
//
// One SQLite file (WAL mode) backs all of it. Keeping the queues in the same
// database is what makes the router loop's commit point atomic: a reply
// group is enqueued and its inbox message marked done in a single
// transaction, so a crash can duplicate replies but never drop them.
//
// Inbox rows move pending -> processing -> done|failed. The processing state
// only marks an in-flight claim; rows still processing at startup are crash
// leftovers and RequeueProcessing returns them to pending. Deduplication is
// a unique partial index on non-empty idempotency keys.
//
// Outbox rows stay pending across retries and leave the queue only as done
// or failed_permanent. The sender claims strictly by
// (next_attempt_ts, retry_count, created_ts, id).
package store
