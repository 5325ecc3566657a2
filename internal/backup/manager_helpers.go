// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"github.com/tomtom215/stockdesk/internal/metrics"
)

// GetStats returns aggregate statistics about stored exports
func (m *Manager) GetStats() *BackupStats {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	stats := &BackupStats{
		CountByStatus: make(map[BackupStatus]int),
		NextScheduled: m.metadata.NextScheduled,
	}

	for _, b := range m.metadata.Backups {
		stats.TotalCount++
		stats.CountByStatus[b.Status]++
		if b.Status != StatusCompleted {
			continue
		}
		stats.TotalSizeBytes += b.FileSize

		created := b.CreatedAt
		if stats.NewestBackup == nil || created.After(*stats.NewestBackup) {
			stats.NewestBackup = &created
			stats.LastBackup = b
		}
		if stats.OldestBackup == nil || created.Before(*stats.OldestBackup) {
			stats.OldestBackup = &created
		}
	}

	return stats
}

func (m *Manager) updateStoredGauge() {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()
	m.updateStoredGaugeLocked()
}

// updateStoredGaugeLocked publishes the completed export count (lock held)
func (m *Manager) updateStoredGaugeLocked() {
	count := 0
	for _, b := range m.metadata.Backups {
		if b.Status == StatusCompleted {
			count++
		}
	}
	metrics.StoredBackups.Set(float64(count))
}
