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
	"strconv"
	"strings"

	"github.com/tomtom215/fieldbridge/internal/models"
)

// GetParam returns the metadata for one parameter key, or ErrNotFound.
func (s *Store) GetParam(ctx context.Context, pkey string) (*models.Param, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT pkey, name, min_v, max_v, default_v, rw, unit, scale, offset_v
		 FROM params WHERE pkey = ?`, pkey)

	p := &models.Param{}
	err := row.Scan(&p.PKey, &p.Name, &p.Min, &p.Max, &p.Default, &p.RW, &p.Unit, &p.Scale, &p.Offset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("param %s: %w", pkey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get param: %w", err)
	}
	return p, nil
}

// UpsertParamMeta inserts or replaces parameter metadata after validating it:
// access mode must normalize to R or RW, min must not exceed max, and a
// numeric default must sit inside the range. Range checks only apply when
// both sides parse as numbers; symbolic bounds pass through.
func (s *Store) UpsertParamMeta(ctx context.Context, p models.Param) error {
	if p.PKey == "" {
		return fmt.Errorf("store: param key is required")
	}

	rw, ok := normalizeRW(p.RW)
	if !ok {
		return fmt.Errorf("param %s rw %q: %w", p.PKey, p.RW, ErrBadAccessMode)
	}

	minV, minOK := parseNumeric(p.Min)
	maxV, maxOK := parseNumeric(p.Max)
	if minOK && maxOK && minV > maxV {
		return fmt.Errorf("param %s min %s max %s: %w", p.PKey, p.Min, p.Max, ErrRangeInverted)
	}
	if defV, defOK := parseNumeric(p.Default); defOK {
		if (minOK && defV < minV) || (maxOK && defV > maxV) {
			return fmt.Errorf("param %s default %s: %w", p.PKey, p.Default, ErrDefaultOutOfRange)
		}
	}

	scale := p.Scale
	if scale == 0 {
		scale = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO params (pkey, name, min_v, max_v, default_v, rw, unit, scale, offset_v, updated_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pkey) DO UPDATE SET
		   name = excluded.name, min_v = excluded.min_v, max_v = excluded.max_v,
		   default_v = excluded.default_v, rw = excluded.rw, unit = excluded.unit,
		   scale = excluded.scale, offset_v = excluded.offset_v, updated_ts = excluded.updated_ts`,
		p.PKey, p.Name, p.Min, p.Max, p.Default, rw, p.Unit, scale, p.Offset, s.now())
	if err != nil {
		return fmt.Errorf("failed to upsert param %s: %w", p.PKey, err)
	}
	return nil
}

// SetParamValue records a host-side write. When metadata exists it is
// enforced: R parameters return ErrReadOnly, numeric values outside the
// min/max return ErrOutOfRange. Keys without metadata are accepted as-is so
// simulation channels work without a parameter import.
func (s *Store) SetParamValue(ctx context.Context, pkey, value string) error {
	meta, err := s.GetParam(ctx, pkey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if meta != nil {
		if meta.RW == models.ParamReadOnly {
			return fmt.Errorf("param %s: %w", pkey, ErrReadOnly)
		}
		if v, ok := parseNumeric(value); ok {
			if minV, minOK := parseNumeric(meta.Min); minOK && v < minV {
				return fmt.Errorf("param %s value %s below min %s: %w", pkey, value, meta.Min, ErrOutOfRange)
			}
			if maxV, maxOK := parseNumeric(meta.Max); maxOK && v > maxV {
				return fmt.Errorf("param %s value %s above max %s: %w", pkey, value, meta.Max, ErrOutOfRange)
			}
		}
	}

	return s.upsertValue(ctx, pkey, value)
}

// ApplyDeviceValue records a device-originated value. Read-only here means
// read-only for the host, so the access mode check is skipped; range checks
// are too, because the device is the authority on its own state.
func (s *Store) ApplyDeviceValue(ctx context.Context, pkey, value string) error {
	return s.upsertValue(ctx, pkey, value)
}

func (s *Store) upsertValue(ctx context.Context, pkey, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO param_values (pkey, value, updated_ts) VALUES (?, ?, ?)
		 ON CONFLICT(pkey) DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts`,
		pkey, value, s.now())
	if err != nil {
		return fmt.Errorf("failed to set value for %s: %w", pkey, err)
	}
	return nil
}

// EffectiveValue resolves the value a simulated read reports: the last
// written value, else the metadata default. ok is false when neither exists;
// the caller then falls back to its own seed.
func (s *Store) EffectiveValue(ctx context.Context, pkey string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM param_values WHERE pkey = ?", pkey).Scan(&value)
	if err == nil {
		return value, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("failed to read value for %s: %w", pkey, err)
	}

	var defaultV string
	err = s.db.QueryRowContext(ctx,
		"SELECT default_v FROM params WHERE pkey = ?", pkey).Scan(&defaultV)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read default for %s: %w", pkey, err)
	}
	if defaultV == "" {
		return "", false, nil
	}
	return defaultV, true, nil
}

// normalizeRW maps the access mode spellings seen in parameter sheets onto
// the two canonical modes. Empty means unrestricted.
func normalizeRW(rw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(rw)) {
	case "", "RW", "R/W", "R_W":
		return models.ParamReadWrite, true
	case "R":
		return models.ParamReadOnly, true
	default:
		return "", false
	}
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
