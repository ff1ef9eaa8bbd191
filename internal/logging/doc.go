// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package logging provides centralized zerolog-based structured logging for
// Fieldbridge.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for bench work. Every package in the bridge logs through
// it, so one Init call controls the whole process.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with correlation ID propagation
//   - slog adapter for Suture v4 integration
//
// # Quick Start
//
//	import "github.com/tomtom215/fieldbridge/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("channel", "esp-plc").Msg("Device in live mode")
//	logging.Error().Err(err).Int("attempts", n).Msg("Delivery failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("pkey", pkey).Msg("Processing command")
//
// # Configuration
//
// The daemon maps FIELDBRIDGE_LOG_LEVEL, FIELDBRIDGE_LOG_FORMAT and
// FIELDBRIDGE_LOG_CALLER onto the Config passed to Init:
//
//	Level   - Minimum log level: trace, debug, info, warn, error (default: info)
//	Format  - Output format: json, console (default: json)
//	Caller  - Include caller file:line: true, false (default: false)
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	// Good - structured, searchable, efficient
//	logging.Info().
//	    Str("channel", channel).
//	    Int("count", claimed).
//	    Dur("elapsed", duration).
//	    Msg("Messages processed")
//
//	// Avoid - unstructured, harder to parse
//	logging.Info().Msgf("Channel %s processed %d in %v", channel, claimed, duration)
//
// # Component Loggers
//
// Create component-specific loggers with default fields:
//
//	senderLogger := logging.Component("sender")
//	senderLogger.Info().Msg("Starting delivery loop")
//
// # Context-Aware Logging
//
// The ingress handler stamps each accepted message's context with its
// idempotency key, so every log line the router and sender emit for that
// message carries the same correlation_id:
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Msg("Processing request")
//
// # slog Adapter
//
// The package provides an slog adapter for libraries that require
// *slog.Logger:
//
//	slogLogger := logging.NewSlogLogger()
//	// Use slogLogger with Suture or other slog-compatible libraries
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"Queue store opened","path":"./fieldbridge.db"}
//
// Console Format (Development):
//
//	10:30:00 INF Queue store opened path=./fieldbridge.db
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
// Create test loggers that capture output:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//	output := buf.String()
//
// # See Also
//
//   - github.com/rs/zerolog: Underlying logging library
//   - internal/middleware: Request ID middleware for correlation
package logging
