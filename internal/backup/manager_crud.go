// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
manager_crud.go - Stored Export Operations

Export Creation Flow:
 1. Initialize the record with a UUID, trigger and notes
 2. Generate a timestamped filename (stockdesk-{trigger}-{timestamp}-{id}.zip)
 3. Stream the archive into a .partial file, then rename it into place
 4. Calculate the SHA-256 checksum of the whole archive
 5. Mark completed, persist metadata and fire the completion callback

Failed exports are kept in the catalog with their error so the UI can show
them; their partial files are removed.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/tomtom215/stockdesk/internal/logging"
	"github.com/tomtom215/stockdesk/internal/metrics"
)

// CreateBackup exports every registered domain into the backup directory
func (m *Manager) CreateBackup(ctx context.Context, notes string) (*Backup, error) {
	if err := m.tryLockOperation(); err != nil {
		return nil, err
	}
	defer m.opMu.Unlock()

	return m.createBackupWithTrigger(ctx, TriggerManual, notes)
}

// createBackupWithTrigger creates an export (opMu must be held)
func (m *Manager) createBackupWithTrigger(ctx context.Context, trigger BackupTrigger, notes string) (*Backup, error) {
	if !m.cfg.Enabled {
		return nil, ErrBackupsDisabled
	}

	startTime := time.Now()
	backup := m.initializeBackupRecord(trigger, notes, startTime)
	backup.FilePath = m.generateBackupFilePath(trigger, startTime, backup.ID)

	files, err := m.writeArchive(ctx, backup.FilePath)
	if err != nil {
		return m.handleBackupError(backup, startTime, err)
	}
	backup.Domains = files

	checksum, err := calculateFileChecksum(backup.FilePath)
	if err != nil {
		return m.handleBackupError(backup, startTime, fmt.Errorf("failed to calculate checksum: %w", err))
	}
	backup.Checksum = checksum

	fileInfo, err := os.Stat(backup.FilePath)
	if err != nil {
		return m.handleBackupError(backup, startTime, fmt.Errorf("failed to stat backup file: %w", err))
	}
	backup.FileSize = fileInfo.Size()

	backup.Status = StatusCompleted
	completedAt := time.Now()
	backup.CompletedAt = &completedAt
	backup.Duration = time.Since(startTime)

	m.saveBackup(backup)
	m.updateStoredGauge()
	metrics.RecordExport(string(StatusCompleted), string(trigger), backup.FileSize, backup.Duration)

	logging.Ctx(ctx).Info().
		Str("backup_id", backup.ID).
		Str("trigger", string(trigger)).
		Int("domains", len(backup.Domains)).
		Int64("rows", backup.TotalRows()).
		Str("size", humanize.Bytes(uint64(backup.FileSize))). //nolint:gosec // file sizes are non-negative
		Dur("duration", backup.Duration).
		Msg("Backup created")

	if m.onBackupComplete != nil {
		m.onBackupComplete(backup)
	}

	return backup, nil
}

// writeArchive streams an export into path via a temporary file.
func (m *Manager) writeArchive(ctx context.Context, path string) ([]DomainFile, error) {
	partial := path + ".partial"
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path is inside the backup dir
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}

	files, err := m.exporter.Export(ctx, f, nil)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close backup file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(partial) //nolint:errcheck // Best effort cleanup
		return nil, err
	}

	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial) //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to finalize backup file: %w", err)
	}
	return files, nil
}

// initializeBackupRecord creates a new export record with initial values
func (m *Manager) initializeBackupRecord(trigger BackupTrigger, notes string, startTime time.Time) *Backup {
	return &Backup{
		ID:         uuid.New().String(),
		Status:     StatusInProgress,
		Trigger:    trigger,
		CreatedAt:  startTime,
		Notes:      notes,
		AppVersion: AppVersion,
		Domains:    make([]DomainFile, 0),
	}
}

// generateBackupFilePath generates the file path for an export
func (m *Manager) generateBackupFilePath(trigger BackupTrigger, startTime time.Time, backupID string) string {
	timestamp := startTime.Format("20060102-150405")
	filename := fmt.Sprintf("stockdesk-%s-%s-%s.zip", trigger, timestamp, backupID[:8])
	return filepath.Join(m.cfg.BackupDir, filename)
}

// handleBackupError marks an export as failed and saves it
func (m *Manager) handleBackupError(backup *Backup, startTime time.Time, err error) (*Backup, error) {
	backup.Status = StatusFailed
	backup.Error = err.Error()
	completedAt := time.Now()
	backup.CompletedAt = &completedAt
	backup.Duration = time.Since(startTime)
	m.saveBackup(backup)

	metrics.RecordExport(string(StatusFailed), string(backup.Trigger), 0, backup.Duration)
	logging.Error().Err(err).Str("backup_id", backup.ID).Msg("Backup failed")
	return backup, err
}

// ListBackups returns stored exports with optional filtering
func (m *Manager) ListBackups(opts BackupListOptions) ([]*Backup, error) {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	if m.metadata == nil {
		return []*Backup{}, nil
	}

	filtered := m.filterBackups(opts)

	sort.Slice(filtered, func(i, j int) bool {
		if opts.SortDesc {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return applyPagination(filtered, opts), nil
}

// filterBackups filters exports based on the provided options
func (m *Manager) filterBackups(opts BackupListOptions) []*Backup {
	filtered := make([]*Backup, 0, len(m.metadata.Backups))
	for _, b := range m.metadata.Backups {
		if opts.Status != nil && b.Status != *opts.Status {
			continue
		}
		if opts.Trigger != nil && b.Trigger != *opts.Trigger {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}

// applyPagination applies offset and limit to the filtered exports
func applyPagination(filtered []*Backup, opts BackupListOptions) []*Backup {
	if opts.Offset >= len(filtered) {
		return []*Backup{}
	}
	if opts.Offset > 0 {
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered
}

// GetBackup returns a stored export by ID
func (m *Manager) GetBackup(backupID string) (*Backup, error) {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	backup, _ := m.findBackupLocked(backupID)
	if backup == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, backupID)
	}
	return backup, nil
}

// OpenBackup opens a completed export for reading (download).
func (m *Manager) OpenBackup(backupID string) (*Backup, io.ReadSeekCloser, error) {
	backup, err := m.GetBackup(backupID)
	if err != nil {
		return nil, nil, err
	}
	if backup.Status != StatusCompleted {
		return nil, nil, fmt.Errorf("backup %s is %s", backupID, backup.Status)
	}
	f, err := os.Open(backup.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	return backup, f, nil
}

// VerifyBackup recomputes the archive checksum and compares it to the catalog.
func (m *Manager) VerifyBackup(backupID string) error {
	backup, err := m.GetBackup(backupID)
	if err != nil {
		return err
	}
	checksum, err := calculateFileChecksum(backup.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}
	if checksum != backup.Checksum {
		return fmt.Errorf("checksum mismatch for backup %s: expected %s, got %s", backupID, backup.Checksum, checksum)
	}
	return nil
}

// DeleteBackup deletes a stored export and its file
func (m *Manager) DeleteBackup(backupID string) error {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	backup, _ := m.findBackupLocked(backupID)
	if backup == nil {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, backupID)
	}
	if err := m.deleteBackupLocked(backup); err != nil {
		return err
	}
	m.updateStoredGaugeLocked()
	return m.saveMetadataLocked()
}

// deleteBackupLocked removes the file and the catalog entry (lock held)
func (m *Manager) deleteBackupLocked(backup *Backup) error {
	if fileExists(backup.FilePath) {
		if err := os.Remove(backup.FilePath); err != nil {
			return fmt.Errorf("failed to delete backup file: %w", err)
		}
	}
	if _, idx := m.findBackupLocked(backup.ID); idx >= 0 {
		m.metadata.Backups = append(m.metadata.Backups[:idx], m.metadata.Backups[idx+1:]...)
	}
	return nil
}

// findBackupLocked finds an export by ID (must be called with lock held)
func (m *Manager) findBackupLocked(backupID string) (*Backup, int) {
	for i, b := range m.metadata.Backups {
		if b.ID == backupID {
			return b, i
		}
	}
	return nil, -1
}

// calculateFileChecksum returns the hex SHA-256 of a file
func calculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from the catalog
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
