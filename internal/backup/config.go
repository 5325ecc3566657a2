// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/stockdesk/internal/archive"
)

// Config holds all backup-related configuration
type Config struct {
	// Enable the stored export catalog (restore from uploads works regardless)
	Enabled bool

	// Directory to store exports and metadata.json
	BackupDir string

	// TempDir holds restore scratch files; empty uses the OS default
	TempDir string

	// Archive layout and entry limits
	Archive archive.Options

	// MinSucceeded is the restore success threshold
	MinSucceeded int

	// PreRestoreBackup exports the current state before every restore
	PreRestoreBackup bool

	// Schedule configuration
	Schedule ScheduleConfig

	// Retention policy
	Retention RetentionPolicy
}

// DefaultConfig returns a configuration with stored exports enabled in dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Enabled:          true,
		BackupDir:        dir,
		Archive:          archive.DefaultOptions(),
		MinSucceeded:     DefaultMinSucceeded,
		PreRestoreBackup: true,
		Schedule:         DefaultScheduleConfig(),
		Retention:        DefaultRetentionPolicy(),
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Enabled && c.BackupDir == "" {
		return fmt.Errorf("backup directory is required when backups are enabled")
	}
	if c.MinSucceeded < 0 {
		return fmt.Errorf("min succeeded must not be negative")
	}

	if c.Schedule.Enabled {
		if c.Schedule.Interval < time.Hour {
			return fmt.Errorf("backup interval must be at least 1 hour")
		}
		if c.Schedule.PreferredHour < 0 || c.Schedule.PreferredHour > 23 {
			return fmt.Errorf("preferred hour must be between 0 and 23")
		}
	}

	if c.Retention.MinCount < 1 {
		return fmt.Errorf("minimum backup count must be at least 1")
	}
	if c.Retention.MaxCount > 0 && c.Retention.MaxCount < c.Retention.MinCount {
		return fmt.Errorf("maximum backup count must be >= minimum count")
	}
	return nil
}

// EnsureBackupDir creates the backup directory if it doesn't exist
func (c *Config) EnsureBackupDir() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory not configured")
	}
	if err := os.MkdirAll(c.BackupDir, 0o750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return nil
}
