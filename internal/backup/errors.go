// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"errors"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/domains"
)

// Restore and export errors. Per-domain errors are recorded in the report;
// only ErrCorruptArchive, ErrNoUsableDomains and context errors are returned
// from Restore itself.
var (
	// ErrCorruptArchive is returned when the uploaded bytes are not an archive.
	ErrCorruptArchive = archive.ErrCorruptArchive

	// ErrReadEntry is recorded when a resolved entry cannot be read.
	ErrReadEntry = archive.ErrReadEntry

	// ErrUnknownDomain is recorded for names missing from the registry.
	ErrUnknownDomain = domains.ErrUnknownDomain

	// ErrDomainNotFound is recorded when the archive has no entry for a domain.
	ErrDomainNotFound = errors.New("domain not found in archive")

	// ErrSchemaMismatch is recorded when the archived table or one of the
	// row-shape columns is missing from the snapshot.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrRowDecode is recorded when a snapshot value cannot be coerced to the
	// column type.
	ErrRowDecode = errors.New("row decode failed")

	// ErrWrite is recorded when the destination rejects a write or commit.
	ErrWrite = errors.New("write failed")

	// ErrOpenSnapshot is recorded when the archived bytes are not a readable database.
	ErrOpenSnapshot = errors.New("snapshot unreadable")

	// ErrOpenDomain is recorded when the destination database cannot be initialized.
	ErrOpenDomain = errors.New("domain store unavailable")

	// ErrNoUsableDomains is returned when fewer domains committed than required.
	ErrNoUsableDomains = errors.New("no usable domains restored")

	// ErrRestoreInProgress is returned when an export or restore is already running.
	ErrRestoreInProgress = errors.New("another backup or restore is in progress")

	// ErrBackupNotFound is returned for unknown stored backup IDs.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrBackupsDisabled is returned when the backup directory is not enabled.
	ErrBackupsDisabled = errors.New("backups are disabled")
)
