// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/database"
	"github.com/tomtom215/stockdesk/internal/domains"
)

// testEnv is a live data directory with every default domain registered.
type testEnv struct {
	dir      string
	stores   *database.Stores
	registry *domains.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	stores, err := database.NewStores(filepath.Join(dir, "databases"))
	if err != nil {
		t.Fatalf("NewStores failed: %v", err)
	}
	t.Cleanup(func() { stores.Close() }) //nolint:errcheck // test cleanup

	registry, err := domains.NewRegistry(stores.Bind(domains.Defaults())...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return &testEnv{dir: dir, stores: stores, registry: registry}
}

func (e *testEnv) domain(t *testing.T, name string) *domains.Domain {
	t.Helper()
	d, err := e.registry.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s) failed: %v", name, err)
	}
	return d
}

func (e *testEnv) db(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := e.domain(t, name).Init(context.Background())
	if err != nil {
		t.Fatalf("Init(%s) failed: %v", name, err)
	}
	return db
}

func (e *testEnv) exec(t *testing.T, name, query string, args ...any) {
	t.Helper()
	if _, err := e.db(t, name).Exec(query, args...); err != nil {
		t.Fatalf("exec on %s failed: %v", name, err)
	}
}

func (e *testEnv) count(t *testing.T, name string) int64 {
	t.Helper()
	n, err := database.CountRows(context.Background(), e.db(t, name), e.domain(t, name).Table)
	if err != nil {
		t.Fatalf("CountRows(%s) failed: %v", name, err)
	}
	return n
}

func (e *testEnv) newRestorer(cfg RestorerConfig) *Restorer {
	if cfg.Archive == (archive.Options{}) {
		cfg.Archive = archive.DefaultOptions()
	}
	return NewRestorer(e.registry, cfg)
}

func defaultDomain(t *testing.T, name string) domains.Domain {
	t.Helper()
	for _, d := range domains.Defaults() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no default domain %s", name)
	return domains.Domain{}
}

// snapshot builds a SQLite database with the default schema of name holding
// rows in row-shape order, and returns its bytes.
func snapshot(t *testing.T, name string, rows ...[]any) []byte {
	t.Helper()
	d := defaultDomain(t, name)

	cols := d.ColumnNames()
	insert := "INSERT INTO " + d.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	return rawSnapshot(t, d.Schema, func(db *sql.DB) {
		for _, row := range rows {
			if _, err := db.Exec(insert, row...); err != nil {
				t.Fatalf("insert into %s snapshot failed: %v", name, err)
			}
		}
	})
}

// rawSnapshot builds a SQLite database from arbitrary statements.
func rawSnapshot(t *testing.T, stmts []string, fill func(db *sql.DB)) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := sql.Open(database.DriverName, path)
	if err != nil {
		t.Fatalf("open snapshot failed: %v", err)
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("snapshot statement failed: %v", err)
		}
	}
	if fill != nil {
		fill(db)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close snapshot failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot failed: %v", err)
	}
	return data
}

type zipEntry struct {
	name string
	data []byte
}

// zipArchive builds an archive with entries in the given order. Names ending
// in "/" become directory entries.
func zipArchive(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s failed: %v", e.name, err)
		}
		if strings.HasSuffix(e.name, "/") {
			continue
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("zip write %s failed: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close failed: %v", err)
	}
	return buf.Bytes()
}

func holdingRow(code string, quantity int64) []any {
	return []any{code, "Stock " + code, 10.5, quantity, "2024-01-02 09:30:00", int64(1), nil, nil, nil}
}

func configRow(key, value string) []any {
	return []any{key, value}
}

func stockRow(symbol, name string) []any {
	return []any{symbol, name}
}

func holdingQuantity(t *testing.T, e *testEnv, code string) int64 {
	t.Helper()
	var q int64
	err := e.db(t, domains.Holdings).QueryRow("SELECT quantity FROM holdings WHERE code = ?", code).Scan(&q)
	if err != nil {
		t.Fatalf("query holding %s failed: %v", code, err)
	}
	return q
}
