// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package config loads Stockdesk configuration with Koanf v2.
//
// Sources are layered with clear precedence: built-in defaults, then an
// optional YAML file (CONFIG_PATH or config.yaml), then environment variables.
// The resulting Config is validated with struct tags before use.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Data    DataConfig    `koanf:"data"`
	Backup  BackupConfig  `koanf:"backup"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// DataConfig locates the per-domain SQLite databases.
type DataConfig struct {
	// Dir holds one <domain>.db file per registered domain.
	Dir string `koanf:"dir" validate:"required"`
}

// BackupConfig holds export, restore and retention settings.
type BackupConfig struct {
	Enabled bool `koanf:"enabled"`

	// Dir stores exported archives and metadata.json.
	Dir string `koanf:"dir" validate:"required_if=Enabled true"`

	// TempDir is the parent for per-operation scratch directories.
	// Empty uses the OS temp directory.
	TempDir string `koanf:"temp_dir"`

	// ContainerDir is the directory inside archives that holds database entries.
	ContainerDir string `koanf:"container_dir"`

	// Extension is the file extension of database entries inside archives.
	Extension string `koanf:"extension" validate:"required,startswith=."`

	// MaxEntryBytes bounds the decompressed size of a single archive entry.
	MaxEntryBytes int64 `koanf:"max_entry_bytes" validate:"gt=0"`

	// MaxUploadBytes bounds the size of an archive accepted over HTTP.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`

	// MinSucceeded is the number of domains that must commit for a restore to
	// be reported as usable.
	MinSucceeded int `koanf:"min_succeeded" validate:"gte=0"`

	// PreRestoreBackup exports the current state before applying an archive.
	PreRestoreBackup bool `koanf:"pre_restore_backup"`

	Schedule  ScheduleConfig  `koanf:"schedule"`
	Retention RetentionConfig `koanf:"retention"`
}

// ScheduleConfig controls automatic exports.
type ScheduleConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	PreferredHour int           `koanf:"preferred_hour" validate:"gte=0,lte=23"`
}

// RetentionConfig controls pruning of stored exports.
type RetentionConfig struct {
	MinCount   int `koanf:"min_count" validate:"gte=1"`
	MaxCount   int `koanf:"max_count" validate:"gte=0"`
	MaxAgeDays int `koanf:"max_age_days" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
