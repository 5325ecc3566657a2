// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package logging provides centralized zerolog-based structured logging for Stockdesk.
//
// Every component logs through the global logger configured by Init. JSON
// output is the default; console output is intended for local development.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("domain", "holdings").Int64("rows", n).Msg("Domain restored")
//
// # Context
//
// Restore and export operations carry a correlation ID so that every per-domain
// line of one operation can be grouped:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Restore started")
//
// # Suture integration
//
// NewSlogLogger returns an *slog.Logger that writes through zerolog, which is
// what sutureslog expects for supervisor events.
package logging
