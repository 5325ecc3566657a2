// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/tomtom215/stockdesk/internal/domains"
)

func TestRestorePartialSuccess(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t,
		zipEntry{"databases/", nil},
		zipEntry{"databases/app_config.db", snapshot(t, domains.AppConfig, configRow("theme", "dark"))},
		zipEntry{"databases/all_stocks.db", snapshot(t, domains.AllStocks, stockRow("SH600000", "Pudong Bank"))},
	)

	names := []string{domains.AppConfig, domains.AllStocks, domains.Holdings, domains.Orders, domains.TrendLines}
	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data, names)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if report.Attempted != 5 || report.Succeeded != 2 {
		t.Errorf("attempted=%d succeeded=%d, want 5/2", report.Attempted, report.Succeeded)
	}
	if len(report.NotFound) != 3 {
		t.Errorf("not found = %v, want 3 domains", report.NotFound)
	}
	if len(report.Failed) != 0 {
		t.Errorf("failed = %v, want none", report.Failed)
	}

	want := "2/5 domains restored; not found: holdings, orders, trend_lines"
	if got := report.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	for _, res := range report.Results {
		if !res.Status.IsTerminal() {
			t.Errorf("%s ended in non-terminal state %s", res.Domain, res.Status)
		}
	}
	if res, _ := report.Result(domains.Holdings); !errors.Is(res.Err, ErrDomainNotFound) {
		t.Errorf("holdings error = %v, want ErrDomainNotFound", res.Err)
	}
}

func TestRestoreAllMissingIsFatal(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t, zipEntry{"readme.txt", []byte("nothing here")})

	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data, nil)
	if !errors.Is(err, ErrNoUsableDomains) {
		t.Fatalf("error = %v, want ErrNoUsableDomains", err)
	}
	if report == nil {
		t.Fatal("report must be returned with the threshold error")
	}
	if report.Attempted != env.registry.Len() || len(report.NotFound) != env.registry.Len() {
		t.Errorf("attempted=%d not_found=%d, want all %d", report.Attempted, len(report.NotFound), env.registry.Len())
	}
}

func TestRestoreMinSucceededThreshold(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t, zipEntry{"app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))})

	report, err := env.newRestorer(RestorerConfig{MinSucceeded: 2}).Restore(context.Background(), data,
		[]string{domains.AppConfig, domains.AllStocks})
	if !errors.Is(err, ErrNoUsableDomains) {
		t.Fatalf("error = %v, want ErrNoUsableDomains", err)
	}
	// Committed domains stay committed even when the threshold fails.
	if report.Succeeded != 1 || env.count(t, domains.AppConfig) != 1 {
		t.Errorf("succeeded=%d rows=%d, want app_config committed", report.Succeeded, env.count(t, domains.AppConfig))
	}
}

func TestRestoreResolutionFallback(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"preferred layout", "databases/holdings.db"},
		{"root with extension", "holdings.db"},
		{"container without extension", "databases/holdings"},
		{"bare name", "holdings"},
		{"nested folder without extension", "backup/holdings"},
		{"nested folder with extension", "export-2024/db/holdings.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			data := zipArchive(t,
				zipEntry{"__MACOSX/._holdings.db", []byte("resource fork")},
				zipEntry{tt.entry, snapshot(t, domains.Holdings, holdingRow("SH600000", 100))},
			)

			report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data, []string{domains.Holdings})
			if err != nil {
				t.Fatalf("Restore failed: %v", err)
			}
			res, _ := report.Result(domains.Holdings)
			if res.Status != DomainCommitted || res.Entry != tt.entry {
				t.Errorf("status=%s entry=%q, want committed from %q", res.Status, res.Entry, tt.entry)
			}
			if q := holdingQuantity(t, env, "SH600000"); q != 100 {
				t.Errorf("quantity = %d, want 100", q)
			}
		})
	}
}

func TestRestoreUnknownDomainNotProbed(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t,
		zipEntry{"databases/bogus.db", []byte("not a database")},
		zipEntry{"databases/app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))},
	)

	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data, []string{"bogus", domains.AppConfig})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	res, _ := report.Result("bogus")
	if res.Status != DomainFailed || !errors.Is(res.Err, ErrUnknownDomain) {
		t.Errorf("bogus status=%s err=%v, want failed with ErrUnknownDomain", res.Status, res.Err)
	}
	if res.Entry != "" {
		t.Errorf("unknown domain resolved entry %q, want archive untouched", res.Entry)
	}
	if report.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", report.Succeeded)
	}
}

func TestRestoreIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	env.exec(t, domains.AllStocks, "INSERT INTO all_stocks (symbol, name) VALUES ('KEEP', 'Existing')")

	data := zipArchive(t,
		zipEntry{"databases/all_stocks.db", rawSnapshot(t, []string{"CREATE TABLE all_stocks (ticker TEXT)"}, nil)},
		zipEntry{"databases/app_config.db", snapshot(t, domains.AppConfig, configRow("theme", "dark"))},
	)

	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data,
		[]string{domains.AllStocks, domains.AppConfig})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	res, _ := report.Result(domains.AllStocks)
	if res.Status != DomainFailed || !errors.Is(res.Err, ErrSchemaMismatch) {
		t.Errorf("all_stocks status=%s err=%v, want failed with ErrSchemaMismatch", res.Status, res.Err)
	}
	if report.Failed[domains.AllStocks] == "" {
		t.Error("failed map should carry the all_stocks reason")
	}
	if n := env.count(t, domains.AllStocks); n != 1 {
		t.Errorf("all_stocks has %d rows, want the untouched original", n)
	}
	if n := env.count(t, domains.AppConfig); n != 1 {
		t.Errorf("app_config has %d rows, want 1", n)
	}
}

func TestRestoreIdempotent(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t,
		zipEntry{"databases/holdings.db", snapshot(t, domains.Holdings, holdingRow("SH600000", 100), holdingRow("SZ000001", 5))},
		zipEntry{"databases/all_stocks.db", snapshot(t, domains.AllStocks, stockRow("SH600000", "Pudong Bank"))},
	)

	r := env.newRestorer(RestorerConfig{})
	for i := 0; i < 2; i++ {
		if _, err := r.Restore(context.Background(), data, nil); err != nil {
			t.Fatalf("Restore #%d failed: %v", i+1, err)
		}
	}

	if n := env.count(t, domains.Holdings); n != 2 {
		t.Errorf("holdings has %d rows, want 2", n)
	}
	if n := env.count(t, domains.AllStocks); n != 1 {
		t.Errorf("all_stocks has %d rows, want 1", n)
	}
}

func TestRestoreCorruptArchive(t *testing.T) {
	env := newTestEnv(t)
	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), []byte("PK but not really"), nil)
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("error = %v, want ErrCorruptArchive", err)
	}
	if report == nil || report.Succeeded != 0 {
		t.Fatalf("report = %+v", report)
	}
	for _, res := range report.Results {
		if res.Status != DomainNotAttempted {
			t.Errorf("%s status = %s, want not_attempted", res.Domain, res.Status)
		}
	}
}

func TestRestoreRemovesTempDir(t *testing.T) {
	env := newTestEnv(t)
	scratch := t.TempDir()
	data := zipArchive(t, zipEntry{"databases/app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))})

	if _, err := env.newRestorer(RestorerConfig{TempDir: scratch}).Restore(context.Background(), data, nil); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch dir still has %d entries after restore", len(entries))
	}
}

func TestRestoreDeduplicatesNames(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t, zipEntry{"app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))})

	report, err := env.newRestorer(RestorerConfig{}).Restore(context.Background(), data,
		[]string{domains.AppConfig, " app_config ", domains.AppConfig})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if report.Attempted != 1 || len(report.Results) != 1 {
		t.Errorf("attempted=%d results=%d, want 1", report.Attempted, len(report.Results))
	}
}

func TestRestoreCancelledBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	data := zipArchive(t, zipEntry{"app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := env.newRestorer(RestorerConfig{}).Restore(ctx, data, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(report.Cancelled) != env.registry.Len() {
		t.Errorf("cancelled = %d domains, want %d", len(report.Cancelled), env.registry.Len())
	}
	if n := env.count(t, domains.AppConfig); n != 0 {
		t.Errorf("app_config has %d rows after cancelled restore", n)
	}
}

func TestRestoreCancelledMidway(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel while all_stocks is being opened; app_config has already committed.
	defs := env.stores.Bind(domains.Defaults())
	for i := range defs {
		if defs[i].Name != domains.AllStocks {
			continue
		}
		open := defs[i].Init
		defs[i].Init = func(ctx context.Context) (*sql.DB, error) {
			cancel()
			return open(ctx)
		}
	}
	registry, err := domains.NewRegistry(defs...)
	if err != nil {
		t.Fatal(err)
	}

	data := zipArchive(t,
		zipEntry{"databases/app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))},
		zipEntry{"databases/all_stocks.db", snapshot(t, domains.AllStocks, stockRow("A", "B"))},
		zipEntry{"databases/holdings.db", snapshot(t, domains.Holdings, holdingRow("SH600000", 1))},
	)

	report, err := NewRestorer(registry, RestorerConfig{}).Restore(ctx, data,
		[]string{domains.AppConfig, domains.AllStocks, domains.Holdings})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	want := map[string]DomainStatus{
		domains.AppConfig: DomainCommitted,
		domains.AllStocks: DomainCancelled,
		domains.Holdings:  DomainCancelled,
	}
	for name, status := range want {
		if res, _ := report.Result(name); res.Status != status {
			t.Errorf("%s status = %s, want %s", name, res.Status, status)
		}
	}
	if n := env.count(t, domains.AppConfig); n != 1 {
		t.Errorf("app_config has %d rows, committed domain must survive cancellation", n)
	}
	if n := env.count(t, domains.AllStocks); n != 0 {
		t.Errorf("all_stocks has %d rows, in-flight domain must roll back", n)
	}
}

func TestRestoreMissingInitializer(t *testing.T) {
	defs := domains.Defaults()
	registry, err := domains.NewRegistry(defs[0])
	if err != nil {
		t.Fatal(err)
	}
	data := zipArchive(t, zipEntry{"app_config.db", snapshot(t, domains.AppConfig, configRow("k", "v"))})

	report, err := NewRestorer(registry, RestorerConfig{}).Restore(context.Background(), data, nil)
	if !errors.Is(err, ErrNoUsableDomains) {
		t.Fatalf("error = %v, want ErrNoUsableDomains", err)
	}
	if res, _ := report.Result(domains.AppConfig); !errors.Is(res.Err, ErrOpenDomain) {
		t.Errorf("error = %v, want ErrOpenDomain", res.Err)
	}
}
