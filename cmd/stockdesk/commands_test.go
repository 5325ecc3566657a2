// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/config"
	"github.com/tomtom215/stockdesk/internal/domains"
)

// useDataDir points configuration at a fresh data and backup directory.
func useDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "absent.yaml"))
	t.Setenv("DATA_DIR", filepath.Join(dir, "databases"))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("BACKUP_TEMP_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func withApp(t *testing.T, fn func(a *app)) {
	t.Helper()
	a, err := loadApp()
	if err != nil {
		t.Fatalf("loadApp failed: %v", err)
	}
	defer a.Close() //nolint:errcheck // test
	fn(a)
}

func execDomain(t *testing.T, a *app, name, query string) {
	t.Helper()
	d, err := a.registry.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	db, err := d.Init(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cliApp := newCLI()
	cliApp.Writer = &out
	cliApp.ErrWriter = &out
	err := cliApp.Run(append([]string{"stockdesk"}, args...))
	return out.String(), err
}

func TestExportThenRestoreCommands(t *testing.T) {
	useDataDir(t)
	withApp(t, func(a *app) {
		execDomain(t, a, domains.AllStocks, "INSERT INTO all_stocks (symbol, name) VALUES ('SH600000', 'Pudong Bank'), ('SZ000001', 'Ping An Bank')")
	})

	archivePath := filepath.Join(t.TempDir(), "export.zip")
	out, err := runCLI(t, "export", "-o", archivePath)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 10 domains") {
		t.Errorf("export output missing summary:\n%s", out)
	}
	if _, err := os.Stat(archivePath + ".partial"); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}

	useDataDir(t)
	out, err = runCLI(t, "restore", "-i", archivePath, "--domains", "all_stocks,holdings", "--no-pre-restore")
	if err != nil {
		t.Fatalf("restore failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2/2 domains restored") {
		t.Errorf("restore output:\n%s", out)
	}

	withApp(t, func(a *app) {
		d, _ := a.registry.Lookup(domains.AllStocks)
		db, err := d.Init(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM all_stocks").Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("all_stocks has %d rows, want 2", n)
		}
	})
}

func TestRestoreCommandNoUsableDomains(t *testing.T) {
	useDataDir(t)

	// An export limited to one domain cannot satisfy a threshold of two.
	archivePath := filepath.Join(t.TempDir(), "one.zip")
	if out, err := runCLI(t, "export", "-o", archivePath, "--domains", "app_config"); err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, "restore", "-i", archivePath, "--min-succeeded", "2", "--no-pre-restore")
	if !errors.Is(err, backup.ErrNoUsableDomains) {
		t.Fatalf("error = %v, want ErrNoUsableDomains", err)
	}
	if !strings.Contains(out, "1/10 domains restored") || !strings.Contains(out, "not_found") {
		t.Errorf("restore output:\n%s", out)
	}
}

func TestRestoreCommandRequiresInput(t *testing.T) {
	useDataDir(t)
	if _, err := runCLI(t, "restore"); err == nil {
		t.Error("restore without -i should fail")
	}
}

func TestBackupConfigMapping(t *testing.T) {
	cfg := &config.Config{
		Backup: config.BackupConfig{
			Enabled:          true,
			Dir:              "/srv/backups",
			TempDir:          "/tmp/sd",
			ContainerDir:     "databases",
			Extension:        ".sqlite",
			MaxEntryBytes:    1024,
			MinSucceeded:     3,
			PreRestoreBackup: true,
			Schedule:         config.ScheduleConfig{Enabled: true, Interval: 48 * time.Hour, PreferredHour: 4},
			Retention:        config.RetentionConfig{MinCount: 2, MaxCount: 9, MaxAgeDays: 30},
		},
	}

	got := backupConfig(cfg)
	if got.BackupDir != "/srv/backups" || got.TempDir != "/tmp/sd" || got.MinSucceeded != 3 || !got.PreRestoreBackup {
		t.Errorf("backupConfig = %+v", got)
	}
	if got.Archive.Extension != ".sqlite" || got.Archive.MaxEntrySize != 1024 || got.Archive.ContainerDir != "databases" {
		t.Errorf("archive options = %+v", got.Archive)
	}
	if got.Schedule.PreferredHour != 4 || got.Retention.MaxCount != 9 {
		t.Errorf("schedule=%+v retention=%+v", got.Schedule, got.Retention)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("mapped config invalid: %v", err)
	}
}
