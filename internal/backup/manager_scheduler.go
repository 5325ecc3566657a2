// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
manager_scheduler.go - Scheduled Exports

Timer Logic:
  - For intervals >= 24h: run at PreferredHour, on the next occurrence
  - For shorter intervals: run Interval after the previous run
  - Retention is applied after every scheduled export

A scheduled run that finds a restore in progress is skipped and retried at
the next slot rather than waiting for the lock.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/stockdesk/internal/logging"
)

// runScheduler runs the export scheduler loop
func (m *Manager) runScheduler(ctx context.Context) {
	defer m.schedulerWg.Done()

	nextBackup := m.calculateNextBackupTime(time.Now())
	m.setNextScheduled(nextBackup, nil)

	logging.Info().Time("next_backup", nextBackup).Dur("interval", m.cfg.Schedule.Interval).Msg("Backup scheduler started")

	timer := time.NewTimer(time.Until(nextBackup))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.schedulerStop:
			return
		case <-timer.C:
			m.runScheduledBackup(ctx)

			now := time.Now()
			nextBackup = m.calculateNextBackupTime(now)
			m.setNextScheduled(nextBackup, &now)

			timer.Reset(time.Until(nextBackup))
		}
	}
}

// runScheduledBackup performs one scheduled export plus retention.
func (m *Manager) runScheduledBackup(ctx context.Context) {
	if err := m.tryLockOperation(); err != nil {
		logging.Warn().Msg("Scheduled backup skipped: another operation is in progress")
		return
	}
	defer m.opMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	backup, err := m.createBackupWithTrigger(ctx, TriggerScheduled, "Scheduled backup")
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Ctx(ctx).Error().Err(err).Msg("Scheduled backup failed")
		}
		return
	}
	logging.Ctx(ctx).Info().Str("backup_id", backup.ID).Msg("Scheduled backup completed")

	if err := m.ApplyRetentionPolicy(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Retention policy application failed")
	}
}

func (m *Manager) setNextScheduled(next time.Time, last *time.Time) {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	m.metadata.NextScheduled = &next
	if last != nil {
		m.metadata.LastScheduled = last
	}
	m.saveMetadataLocked() //nolint:errcheck // Non-critical in scheduler
}

// calculateNextBackupTime determines when the next scheduled export should run
func (m *Manager) calculateNextBackupTime(now time.Time) time.Time {
	interval := m.cfg.Schedule.Interval

	if interval >= 24*time.Hour {
		next := time.Date(now.Year(), now.Month(), now.Day(),
			m.cfg.Schedule.PreferredHour, 0, 0, 0, now.Location())

		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		if days := int(interval.Hours() / 24); days > 1 {
			next = next.AddDate(0, 0, days-1)
		}
		return next
	}

	return now.Add(interval)
}
