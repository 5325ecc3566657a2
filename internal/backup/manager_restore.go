// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
manager_restore.go - Restore Entry Points

RestoreArchive applies an uploaded archive; RestoreFromBackup applies a stored
export after verifying its checksum. Both:

 1. Take the operation lock (one export or restore at a time)
 2. Optionally export the current state first (trigger pre_restore) so a bad
    archive can be undone; a failed safety export aborts the restore
 3. Run the Restorer and wrap its report in a RestoreResult

The report is returned together with the error when the threshold is not met,
so callers can show which domains failed and why.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/tomtom215/stockdesk/internal/logging"
)

// uploadSource is passed to the restore-start callback for uploaded archives.
const uploadSource = "upload"

// RestoreArchive restores the domains in data.
func (m *Manager) RestoreArchive(ctx context.Context, data []byte, opts RestoreOptions) (*RestoreResult, error) {
	if err := m.tryLockOperation(); err != nil {
		return nil, err
	}
	defer m.opMu.Unlock()

	return m.restoreLocked(ctx, data, opts, uploadSource)
}

// RestoreFromBackup restores a stored export by ID.
func (m *Manager) RestoreFromBackup(ctx context.Context, backupID string, opts RestoreOptions) (*RestoreResult, error) {
	if err := m.tryLockOperation(); err != nil {
		return nil, err
	}
	defer m.opMu.Unlock()

	backup, err := m.GetBackup(backupID)
	if err != nil {
		return nil, err
	}
	if backup.Status != StatusCompleted {
		return nil, fmt.Errorf("cannot restore backup %s with status %s", backupID, backup.Status)
	}
	if err := m.VerifyBackup(backupID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(backup.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	result, err := m.restoreLocked(ctx, data, opts, backupID)
	if result != nil {
		result.BackupID = backupID
	}
	return result, err
}

func (m *Manager) restoreLocked(ctx context.Context, data []byte, opts RestoreOptions, source string) (*RestoreResult, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	result := &RestoreResult{}

	if m.onRestoreStart != nil {
		m.onRestoreStart(source)
	}

	if m.wantPreRestoreBackup(opts) {
		safety, err := m.createBackupWithTrigger(ctx, TriggerPreRestore, "Pre-restore snapshot")
		if err != nil {
			return nil, fmt.Errorf("pre-restore backup failed, restore aborted: %w", err)
		}
		result.PreRestoreBackupID = safety.ID
	}

	minSucceeded := m.restorer.MinSucceeded()
	if opts.MinSucceeded > 0 {
		minSucceeded = opts.MinSucceeded
	}

	report, err := m.restorer.restore(ctx, data, opts.Domains, minSucceeded)
	result.Report = report
	if report != nil {
		result.Summary = report.Summary()
		for _, res := range report.Results {
			if res.Status == DomainFailed {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", res.Domain, res.Error))
			}
		}
	}
	return result, err
}

func (m *Manager) wantPreRestoreBackup(opts RestoreOptions) bool {
	if !m.cfg.Enabled {
		return false
	}
	if opts.PreRestoreBackup != nil {
		return *opts.PreRestoreBackup
	}
	return m.cfg.PreRestoreBackup
}
