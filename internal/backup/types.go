// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"time"
)

// BackupStatus represents the current state of a stored export
type BackupStatus string

const (
	// StatusInProgress indicates the export is currently running
	StatusInProgress BackupStatus = "in_progress"

	// StatusCompleted indicates the export finished successfully
	StatusCompleted BackupStatus = "completed"

	// StatusFailed indicates the export failed
	StatusFailed BackupStatus = "failed"
)

// BackupTrigger indicates what initiated the export
type BackupTrigger string

const (
	// TriggerManual indicates the export was requested by the user
	TriggerManual BackupTrigger = "manual"

	// TriggerScheduled indicates the export was created by the scheduler
	TriggerScheduled BackupTrigger = "scheduled"

	// TriggerPreRestore indicates a safety export taken before a restore
	TriggerPreRestore BackupTrigger = "pre_restore"
)

// Backup is the catalog record of one stored export archive
type Backup struct {
	ID          string        `json:"id"`
	Status      BackupStatus  `json:"status"`
	Trigger     BackupTrigger `json:"trigger"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration_ns"`

	// FilePath is the archive location inside the backup directory
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`

	// Checksum is the SHA-256 of the whole archive file
	Checksum string `json:"checksum"`

	AppVersion string `json:"app_version"`
	Notes      string `json:"notes,omitempty"`
	Error      string `json:"error,omitempty"`

	// Domains lists what the archive contains
	Domains []DomainFile `json:"domains"`
}

// DomainFile describes one domain database inside an export
type DomainFile struct {
	Domain   string `json:"domain"`
	Entry    string `json:"entry"`
	Rows     int64  `json:"rows"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// TotalRows returns the number of rows across all domains.
func (b *Backup) TotalRows() int64 {
	var n int64
	for _, d := range b.Domains {
		n += d.Rows
	}
	return n
}

// BackupListOptions provides filtering and pagination for backup listing
type BackupListOptions struct {
	Status  *BackupStatus
	Trigger *BackupTrigger
	Limit   int
	Offset  int

	// SortDesc lists newest first
	SortDesc bool
}

// RestoreOptions configures a restore through the Manager
type RestoreOptions struct {
	// Domains limits the restore to these names; empty means every registered domain
	Domains []string `json:"domains,omitempty"`

	// PreRestoreBackup exports the current state first. Nil uses the configured default.
	PreRestoreBackup *bool `json:"pre_restore_backup,omitempty"`

	// MinSucceeded overrides the configured threshold when positive
	MinSucceeded int `json:"min_succeeded,omitempty"`
}

// RestoreResult wraps a restore report with manager-level details
type RestoreResult struct {
	Summary string         `json:"summary"`
	Report  *RestoreReport `json:"report"`

	// BackupID is set when restoring from a stored export
	BackupID string `json:"backup_id,omitempty"`

	// PreRestoreBackupID is the safety export taken before applying the archive
	PreRestoreBackupID string `json:"pre_restore_backup_id,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// RetentionPolicy defines how stored exports are pruned
type RetentionPolicy struct {
	// MinCount exports are always kept regardless of age
	MinCount int `json:"min_count"`

	// MaxCount is the maximum number of exports to keep (0 = unlimited)
	MaxCount int `json:"max_count"`

	// MaxAgeDays removes exports older than this (0 = unlimited)
	MaxAgeDays int `json:"max_age_days"`
}

// DefaultRetentionPolicy returns the default retention policy
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MinCount:   3,
		MaxCount:   30,
		MaxAgeDays: 90,
	}
}

// ScheduleConfig defines when automatic exports run
type ScheduleConfig struct {
	Enabled bool `json:"enabled"`

	// Interval between exports (e.g., 24h for daily)
	Interval time.Duration `json:"interval"`

	// PreferredHour is the hour of day (0-23) used when Interval >= 24h
	PreferredHour int `json:"preferred_hour"`
}

// DefaultScheduleConfig returns the default schedule configuration
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Enabled:       false,
		Interval:      24 * time.Hour,
		PreferredHour: 2,
	}
}

// BackupStats summarizes the stored export catalog
type BackupStats struct {
	TotalCount     int                  `json:"total_count"`
	CountByStatus  map[BackupStatus]int `json:"count_by_status"`
	TotalSizeBytes int64                `json:"total_size_bytes"`
	NewestBackup   *time.Time           `json:"newest_backup,omitempty"`
	OldestBackup   *time.Time           `json:"oldest_backup,omitempty"`
	NextScheduled  *time.Time           `json:"next_scheduled,omitempty"`
	LastBackup     *Backup              `json:"last_backup,omitempty"`
}
