// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package main

import (
	"fmt"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/config"
	"github.com/tomtom215/stockdesk/internal/database"
	"github.com/tomtom215/stockdesk/internal/domains"
	"github.com/tomtom215/stockdesk/internal/logging"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	stores   *database.Stores
	registry *domains.Registry
	manager  *backup.Manager
}

// loadApp reads configuration, configures logging and opens the domain stores.
func loadApp() (*app, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	return newApp(cfg)
}

// newApp wires stores, registry and backup manager from cfg.
func newApp(cfg *config.Config) (*app, error) {
	stores, err := database.NewStores(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	registry, err := domains.NewRegistry(stores.Bind(domains.Defaults())...)
	if err != nil {
		stores.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to build domain registry: %w", err)
	}

	manager, err := backup.NewManager(backupConfig(cfg), registry)
	if err != nil {
		stores.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to initialize backup manager: %w", err)
	}

	logging.Info().
		Str("data_dir", cfg.Data.Dir).
		Bool("backups_enabled", cfg.Backup.Enabled).
		Str("backup_dir", cfg.Backup.Dir).
		Int("domains", registry.Len()).
		Msg("Configuration loaded")

	return &app{cfg: cfg, stores: stores, registry: registry, manager: manager}, nil
}

// Close stops the scheduler and closes every open domain database.
func (a *app) Close() error {
	if err := a.manager.Stop(); err != nil {
		logging.Warn().Err(err).Msg("Backup scheduler did not stop cleanly")
	}
	return a.stores.Close()
}

// backupConfig maps the application configuration onto the backup package.
func backupConfig(cfg *config.Config) *backup.Config {
	b := cfg.Backup
	return &backup.Config{
		Enabled:   b.Enabled,
		BackupDir: b.Dir,
		TempDir:   b.TempDir,
		Archive: archive.Options{
			ContainerDir: b.ContainerDir,
			Extension:    b.Extension,
			MaxEntrySize: b.MaxEntryBytes,
		},
		MinSucceeded:     b.MinSucceeded,
		PreRestoreBackup: b.PreRestoreBackup,
		Schedule: backup.ScheduleConfig{
			Enabled:       b.Schedule.Enabled,
			Interval:      b.Schedule.Interval,
			PreferredHour: b.Schedule.PreferredHour,
		},
		Retention: backup.RetentionPolicy{
			MinCount:   b.Retention.MinCount,
			MaxCount:   b.Retention.MaxCount,
			MaxAgeDays: b.Retention.MaxAgeDays,
		},
	}
}
