// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"context"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/stockdesk/internal/logging"
)

// getCompletedBackupsSorted returns completed exports, newest first (lock held)
func (m *Manager) getCompletedBackupsSorted() []*Backup {
	var completed []*Backup
	for _, b := range m.metadata.Backups {
		if b.Status == StatusCompleted {
			completed = append(completed, b)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})
	return completed
}

// selectBackupsToDelete applies the policy to exports sorted newest first.
//
// The newest MinCount exports are always kept. Beyond those, an export is
// deleted when it is older than MaxAgeDays or when it falls past MaxCount.
func selectBackupsToDelete(backups []*Backup, policy RetentionPolicy, now time.Time) []*Backup {
	var toDelete []*Backup
	for i, b := range backups {
		if i < policy.MinCount {
			continue
		}
		if policy.MaxAgeDays > 0 && b.CreatedAt.Before(now.AddDate(0, 0, -policy.MaxAgeDays)) {
			toDelete = append(toDelete, b)
			continue
		}
		if policy.MaxCount > 0 && i >= policy.MaxCount {
			toDelete = append(toDelete, b)
		}
	}
	return toDelete
}

// failedBackupsToDelete returns failed exports older than a day; they are
// kept briefly so the UI can show the error.
func failedBackupsToDelete(backups []*Backup, now time.Time) []*Backup {
	var toDelete []*Backup
	cutoff := now.Add(-24 * time.Hour)
	for _, b := range backups {
		if b.Status == StatusFailed && b.CreatedAt.Before(cutoff) {
			toDelete = append(toDelete, b)
		}
	}
	return toDelete
}

// ApplyRetentionPolicy deletes exports the retention policy no longer keeps
func (m *Manager) ApplyRetentionPolicy(_ context.Context) error {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	if m.metadata == nil || len(m.metadata.Backups) == 0 {
		return nil
	}

	now := time.Now()
	toDelete := selectBackupsToDelete(m.getCompletedBackupsSorted(), m.cfg.Retention, now)
	toDelete = append(toDelete, failedBackupsToDelete(m.metadata.Backups, now)...)
	if len(toDelete) == 0 {
		return nil
	}

	var deletedCount int
	var deletedSize int64
	for _, b := range toDelete {
		if err := m.deleteBackupLocked(b); err != nil {
			logging.Warn().Err(err).Str("backup_id", b.ID).Msg("Failed to delete backup")
			continue
		}
		deletedCount++
		deletedSize += b.FileSize
	}

	if deletedCount > 0 {
		logging.Info().
			Int("deleted_count", deletedCount).
			Str("deleted_size", humanize.Bytes(uint64(deletedSize))). //nolint:gosec // sizes are non-negative
			Msg("Retention policy applied")
	}

	m.updateStoredGaugeLocked()
	return m.saveMetadataLocked()
}
