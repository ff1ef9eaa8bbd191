// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/fieldbridge/internal/models"
)

const maxTrafficQuery = 2000

// AppendTraffic records one line of the message log and prunes the channel
// to the newest logKeep rows, both in one transaction so the cap holds even
// under concurrent writers.
func (s *Store) AppendTraffic(ctx context.Context, channel, direction, message, correlation string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "raspi"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin traffic transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	_, err = tx.ExecContext(ctx,
		"INSERT INTO traffic_log (ts, channel, direction, message, correlation) VALUES (?, ?, ?, ?, ?)",
		s.now(), channel, direction, message, correlation)
	if err != nil {
		return fmt.Errorf("failed to append traffic: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM traffic_log
		 WHERE channel = ?
		   AND id NOT IN (SELECT id FROM traffic_log WHERE channel = ? ORDER BY id DESC LIMIT ?)`,
		channel, channel, s.logKeep)
	if err != nil {
		return fmt.Errorf("failed to prune traffic: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit traffic: %w", err)
	}
	return nil
}

// RecentTraffic returns the newest entries across all channels in oldest
// to newest order. The limit is clamped to [1, 2000].
func (s *Store) RecentTraffic(ctx context.Context, limit int) ([]models.TrafficEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxTrafficQuery {
		limit = maxTrafficQuery
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, channel, direction, message, correlation
		 FROM traffic_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list traffic: %w", err)
	}
	defer rows.Close()

	var entries []models.TrafficEntry
	for rows.Next() {
		var e models.TrafficEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.Channel, &e.Direction, &e.Message, &e.Correlation); err != nil {
			return nil, fmt.Errorf("failed to scan traffic entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating traffic: %w", err)
	}

	// Newest-first from the index; callers want chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
