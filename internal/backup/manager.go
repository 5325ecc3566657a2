// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
manager.go - Backup Manager

The Manager is the single entry point the API, the CLI and the scheduler use
for exports and restores.

Manager Responsibilities:
  - Stored export catalog (create, list, get, delete, download)
  - Restore from uploaded archives and from stored exports
  - Pre-restore safety exports
  - Scheduler lifecycle and retention

Metadata Storage:
Export metadata is stored in metadata.json alongside the archives, containing
the list of exports with their status, checksums and per-domain row counts,
plus the last and next scheduled run.

Thread Safety:
Metadata is protected by a sync.RWMutex. Exports and restores are serialized
by opMu: a second operation started while one is running fails fast with
ErrRestoreInProgress instead of queueing behind a long restore.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/stockdesk/internal/domains"
	"github.com/tomtom215/stockdesk/internal/logging"
)

// AppVersion is set at build time
var AppVersion = "dev"

// metadataFileName is the catalog file inside the backup directory
const metadataFileName = "metadata.json"

// Manager handles export and restore operations
type Manager struct {
	cfg      *Config
	registry *domains.Registry
	exporter *Exporter
	restorer *Restorer

	// Metadata storage
	metadataFile string
	metadata     *MetadataStore
	metadataMu   sync.RWMutex

	// opMu serializes exports and restores
	opMu sync.Mutex

	// Scheduler
	schedulerStop chan struct{}
	schedulerWg   sync.WaitGroup
	running       bool
	runningMu     sync.Mutex

	// Callbacks
	onBackupComplete func(backup *Backup)
	onRestoreStart   func(source string)
}

// MetadataStore holds all export metadata
type MetadataStore struct {
	Backups       []*Backup       `json:"backups"`
	LastScheduled *time.Time      `json:"last_scheduled,omitempty"`
	NextScheduled *time.Time      `json:"next_scheduled,omitempty"`
	Retention     RetentionPolicy `json:"retention"`
}

// NewManager creates a new backup manager
func NewManager(cfg *Config, registry *domains.Registry) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backup configuration is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("domain registry is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backup configuration: %w", err)
	}

	if cfg.Enabled {
		if err := cfg.EnsureBackupDir(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		cfg:      cfg,
		registry: registry,
		exporter: NewExporter(registry, cfg.Archive, cfg.TempDir),
		restorer: NewRestorer(registry, RestorerConfig{
			Archive:      cfg.Archive,
			TempDir:      cfg.TempDir,
			MinSucceeded: cfg.MinSucceeded,
		}),
		metadataFile:  filepath.Join(cfg.BackupDir, metadataFileName),
		schedulerStop: make(chan struct{}),
	}

	if err := m.loadMetadata(); err != nil {
		if cfg.Enabled && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", m.metadataFile).Msg("Backup metadata unreadable, starting with empty catalog")
		}
		m.metadata = &MetadataStore{
			Backups:   make([]*Backup, 0),
			Retention: cfg.Retention,
		}
	}
	m.updateStoredGauge()

	return m, nil
}

// Registry returns the domain registry the manager operates on.
func (m *Manager) Registry() *domains.Registry {
	return m.registry
}

// Config returns the manager configuration.
func (m *Manager) Config() *Config {
	return m.cfg
}

// Start begins the export scheduler
func (m *Manager) Start(ctx context.Context) error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if m.running {
		return fmt.Errorf("backup manager is already running")
	}

	if !m.cfg.Enabled || !m.cfg.Schedule.Enabled {
		return nil
	}

	m.running = true
	m.schedulerStop = make(chan struct{})

	m.schedulerWg.Add(1)
	go m.runScheduler(ctx)

	return nil
}

// Stop stops the export scheduler
func (m *Manager) Stop() error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if !m.running {
		return nil
	}

	close(m.schedulerStop)
	m.schedulerWg.Wait()
	m.running = false

	return nil
}

// IsRunning reports whether the scheduler goroutine is active.
func (m *Manager) IsRunning() bool {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()
	return m.running
}

// tryLockOperation acquires opMu without blocking.
func (m *Manager) tryLockOperation() error {
	if !m.opMu.TryLock() {
		return ErrRestoreInProgress
	}
	return nil
}

// saveBackup saves an export record to the metadata store
func (m *Manager) saveBackup(backup *Backup) {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	found := false
	for i, b := range m.metadata.Backups {
		if b.ID == backup.ID {
			m.metadata.Backups[i] = backup
			found = true
			break
		}
	}
	if !found {
		m.metadata.Backups = append(m.metadata.Backups, backup)
	}

	if err := m.saveMetadataLocked(); err != nil {
		logging.Warn().Err(err).Str("backup_id", backup.ID).Msg("Failed to persist backup metadata")
	}
}

// loadMetadata loads export metadata from disk
func (m *Manager) loadMetadata() error {
	if !m.cfg.Enabled {
		return os.ErrNotExist
	}

	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	data, err := os.ReadFile(m.metadataFile)
	if err != nil {
		return err
	}

	var metadata MetadataStore
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse %s: %w", m.metadataFile, err)
	}
	if metadata.Backups == nil {
		metadata.Backups = make([]*Backup, 0)
	}

	m.metadata = &metadata
	return nil
}

// saveMetadataLocked writes metadata to disk (must be called with lock held).
// The file is replaced atomically so a crash never leaves a truncated catalog.
func (m *Manager) saveMetadataLocked() error {
	if !m.cfg.Enabled {
		return nil
	}
	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.metadataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, m.metadataFile)
}

// SetOnBackupComplete sets the callback for export completion
func (m *Manager) SetOnBackupComplete(fn func(backup *Backup)) {
	m.onBackupComplete = fn
}

// SetOnRestoreStart sets the callback for restore start. source is the
// stored export ID, or "upload" for uploaded archives.
func (m *Manager) SetOnRestoreStart(fn func(source string)) {
	m.onRestoreStart = fn
}
