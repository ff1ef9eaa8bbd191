// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a
// thread-safe singleton validator instance with human-readable error
// messages. It serves two callers: the config package validates the loaded
// configuration against field tags, and the API layer validates request
// bodies before they touch the store.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Error translation to human-readable messages
//   - APIError conversion matching the bridge's response envelope
//   - Future v11 compatibility with WithRequiredStructEnabled
//
// # Quick Start
//
//	type EnqueueRequest struct {
//	    Method string `validate:"omitempty,oneof=POST PUT"`
//	    Path   string `validate:"required,startswith=/"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Message)
//	    return
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n / max=n: Length bounds in characters
//   - url: Valid URL format
//   - ip: Valid IP address
//   - startswith=/: Rooted path
//
// Numeric validations:
//   - gte=n, lte=n, gt=n, lt=n: Range bounds
//   - min=n, max=n: Minimum/maximum value
//
// Enum validations:
//   - oneof=a b c: Must be one of the specified values
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "65535" for max=65535)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message
//	    ToAPIError() *APIError    // Convert to API error format
//	}
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required   -> "Path is required"
//	min=1      -> "PollIntervalMS must be at least 1"
//	max=65535  -> "Port must be at most 65535"
//	gt=0       -> "IntervalS must be greater than 0"
//	oneof=a b  -> "Level must be one of: a b"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()   // Thread-safe
//	verr := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/config: configuration tag validation
//   - internal/api: request handlers using validation
//   - github.com/go-playground/validator/v10: underlying library
package validation
