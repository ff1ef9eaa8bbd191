// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package models

// Param access modes. R parameters reject writes from the host side;
// device-originated updates bypass the check (ApplyDeviceValue).
const (
	ParamReadOnly  = "R"
	ParamReadWrite = "RW"
)

// Param is the metadata record for one parameter key (e.g. TTP00002).
//
// Min, Max and Default are kept as strings because device dialects mix
// numeric and symbolic values; range checks apply only when all three sides
// of the comparison parse as numbers. Scale and Offset describe the raw
// device encoding for live channels (engineering = raw*Scale + Offset).
type Param struct {
	PKey    string  `json:"pkey"`
	Name    string  `json:"name,omitempty"`
	Min     string  `json:"min,omitempty"`
	Max     string  `json:"max,omitempty"`
	Default string  `json:"default,omitempty"`
	RW      string  `json:"rw"`
	Unit    string  `json:"unit,omitempty"`
	Scale   float64 `json:"scale"`
	Offset  float64 `json:"offset"`
}

// ParamValue is the last value written for a key, persisted so simulated
// reads survive restarts.
type ParamValue struct {
	PKey      string `json:"pkey"`
	Value     string `json:"value"`
	UpdatedTS int64  `json:"updated_ts"`
}
