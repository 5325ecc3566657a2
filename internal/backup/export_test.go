// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/domains"
)

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestEnv(t)
	src.exec(t, domains.Holdings,
		"INSERT INTO holdings (code, name, cost, quantity, hold_time, status, sell_price) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"SH600000", "Pudong Bank", 9.8, 100, "2024-01-02 09:30:00", 0, 10.4)
	src.exec(t, domains.Orders,
		"INSERT INTO orders (code, name, time, quantity, cost, action) VALUES ('SH600000', 'Pudong Bank', '2024-01-02', 100, 9.8, 'buy')")
	src.exec(t, domains.MySelection, "INSERT INTO my_selection (code, name, sort) VALUES ('SZ000001', 'Ping An Bank', 2)")

	var buf bytes.Buffer
	files, err := NewExporter(src.registry, archive.DefaultOptions(), t.TempDir()).Export(ctx, &buf, nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != src.registry.Len() {
		t.Fatalf("exported %d domains, want %d", len(files), src.registry.Len())
	}

	for _, f := range files {
		if f.Entry != "databases/"+f.Domain+".db" {
			t.Errorf("entry = %q, want preferred layout", f.Entry)
		}
		if f.Checksum == "" || f.Size == 0 {
			t.Errorf("%s: missing checksum or size", f.Domain)
		}
	}

	dst := newTestEnv(t)
	report, err := dst.newRestorer(RestorerConfig{}).Restore(ctx, buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if report.Succeeded != dst.registry.Len() {
		t.Errorf("Summary: %s", report.Summary())
	}

	if q := holdingQuantity(t, dst, "SH600000"); q != 100 {
		t.Errorf("quantity = %d, want 100", q)
	}
	if n := dst.count(t, domains.Orders); n != 1 {
		t.Errorf("orders has %d rows, want 1", n)
	}
	var color *string
	if err := dst.db(t, domains.MySelection).QueryRow("SELECT color FROM my_selection WHERE code = 'SZ000001'").Scan(&color); err != nil {
		t.Fatal(err)
	}
	if color != nil {
		t.Errorf("color = %q, want NULL preserved", *color)
	}
}

func TestExportRowCounts(t *testing.T) {
	env := newTestEnv(t)
	env.exec(t, domains.AllStocks, "INSERT INTO all_stocks (symbol, name) VALUES ('A', 'a'), ('B', 'b'), ('C', 'c')")

	var buf bytes.Buffer
	files, err := NewExporter(env.registry, archive.DefaultOptions(), "").Export(context.Background(), &buf, []string{domains.AllStocks, domains.AllStocks})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != 1 || files[0].Rows != 3 {
		t.Errorf("files = %+v, want one all_stocks entry with 3 rows", files)
	}
}

func TestExportUnknownDomain(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	_, err := NewExporter(env.registry, archive.DefaultOptions(), "").Export(context.Background(), &buf, []string{"bogus"})
	if !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("error = %v, want ErrUnknownDomain", err)
	}
}
