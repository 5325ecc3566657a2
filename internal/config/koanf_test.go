// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns valid defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Backup.ContainerDir != "databases" {
		t.Errorf("Backup.ContainerDir = %q, want databases", cfg.Backup.ContainerDir)
	}
	if cfg.Backup.Extension != ".db" {
		t.Errorf("Backup.Extension = %q, want .db", cfg.Backup.Extension)
	}
	if cfg.Backup.MinSucceeded != 1 {
		t.Errorf("Backup.MinSucceeded = %d, want 1", cfg.Backup.MinSucceeded)
	}
	if cfg.Backup.MaxEntryBytes != 1<<30 {
		t.Errorf("Backup.MaxEntryBytes = %d, want 1GB", cfg.Backup.MaxEntryBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DATA_DIR", "data.dir"},
		{"BACKUP_INTERVAL", "backup.schedule.interval"},
		{"RESTORE_MIN_SUCCEEDED", "backup.min_succeeded"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_FileAndEnvLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
data:
  dir: /srv/stockdesk/db
backup:
  dir: /srv/stockdesk/backups
  min_succeeded: 3
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("BACKUP_INTERVAL", "6h")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}

	if cfg.Data.Dir != "/srv/stockdesk/db" {
		t.Errorf("Data.Dir = %q, want file value", cfg.Data.Dir)
	}
	if cfg.Backup.MinSucceeded != 3 {
		t.Errorf("Backup.MinSucceeded = %d, want 3", cfg.Backup.MinSucceeded)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, env should override file", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Backup.Schedule.Interval != 6*time.Hour {
		t.Errorf("Schedule.Interval = %v, want 6h", cfg.Backup.Schedule.Interval)
	}
	if cfg.Backup.Extension != ".db" {
		t.Errorf("Backup.Extension = %q, default should survive", cfg.Backup.Extension)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative min succeeded",
			mutate:  func(c *Config) { c.Backup.MinSucceeded = -1 },
			wantErr: "MinSucceeded",
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Backup.Extension = "db" },
			wantErr: "Extension",
		},
		{
			name:    "container dir escapes",
			mutate:  func(c *Config) { c.Backup.ContainerDir = "../outside" },
			wantErr: "container_dir",
		},
		{
			name:    "retention max below min",
			mutate:  func(c *Config) { c.Backup.Retention.MaxCount = 1 },
			wantErr: "max_count",
		},
		{
			name: "schedule interval too short",
			mutate: func(c *Config) {
				c.Backup.Schedule.Enabled = true
				c.Backup.Schedule.Interval = time.Minute
			},
			wantErr: "interval",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Format",
		},
		{
			name:    "backup dir required when enabled",
			mutate:  func(c *Config) { c.Backup.Dir = "" },
			wantErr: "Dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8080}
	if got := s.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
