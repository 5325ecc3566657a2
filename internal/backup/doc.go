// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package backup exports and restores Stockdesk's per-domain SQLite databases.
//
// An export packages every registered domain into one zip archive, one
// database per domain at databases/<domain>.db. A restore reads such an
// archive (or a hand-made variant of it) and replays each domain's rows into
// the live database with an upsert on the domain's natural key.
//
// Architecture:
//
//	┌──────────────┐     ┌─────────────────┐     ┌──────────────────┐
//	│   Scheduler  │────▶│     Manager     │────▶│  backup dir      │
//	└──────────────┘     └─────────────────┘     │  metadata.json   │
//	                        │           │        │  stockdesk-*.zip │
//	                        ▼           ▼        └──────────────────┘
//	                 ┌──────────┐ ┌──────────┐
//	                 │ Exporter │ │ Restorer │──▶ Importer (per domain)
//	                 └──────────┘ └──────────┘
//
// Restore semantics:
//
//   - Domains are processed sequentially and independently. A failure in one
//     domain never prevents or undoes another.
//   - Each domain is replayed inside a single transaction. Either every row
//     from the archive is applied or none is.
//   - A domain missing from the archive is reported as not found and left
//     untouched.
//   - The operation fails as a whole only when the archive cannot be opened,
//     when the context is cancelled, or when fewer than MinSucceeded domains
//     committed.
//
// Usage:
//
//	restorer := backup.NewRestorer(registry, backup.RestorerConfig{MinSucceeded: 1})
//	report, err := restorer.Restore(ctx, archiveBytes, nil)
//	fmt.Println(report.Summary()) // "3/10 domains restored; ..."
package backup
