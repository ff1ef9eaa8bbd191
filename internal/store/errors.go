// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package store

import "errors"

// Sentinel errors returned by store operations. Callers branch on these with
// errors.Is; the device layer translates the parameter errors into NAK
// replies.
var (
	// ErrNotFound is returned when a row addressed by id or key does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrReadOnly rejects a host-side write to a parameter whose metadata
	// declares it R. Device-originated updates bypass it (ApplyDeviceValue).
	ErrReadOnly = errors.New("store: parameter is read-only")

	// ErrOutOfRange rejects a numeric write outside the metadata min/max.
	ErrOutOfRange = errors.New("store: value out of range")

	// ErrBadAccessMode rejects parameter metadata whose access mode is
	// neither R nor RW.
	ErrBadAccessMode = errors.New("store: access mode must be R or RW")

	// ErrRangeInverted rejects parameter metadata with min > max.
	ErrRangeInverted = errors.New("store: min greater than max")

	// ErrDefaultOutOfRange rejects parameter metadata whose default falls
	// outside its own min/max range.
	ErrDefaultOutOfRange = errors.New("store: default outside min/max range")
)
