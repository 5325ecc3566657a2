// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// buildZip creates an in-memory archive. Names ending in "/" become directories.
func buildZip(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatalf("create %s: %v", e[0], err)
		}
		if !strings.HasSuffix(e[0], "/") {
			if _, err := w.Write([]byte(e[1])); err != nil {
				t.Fatalf("write %s: %v", e[0], err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func entry(name, body string) [2]string { return [2]string{name, body} }

func TestOpenCorrupt(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("definitely not a zip")} {
		if _, err := Open(data, DefaultOptions()); !errors.Is(err, ErrCorruptArchive) {
			t.Errorf("Open(%q) error = %v, want ErrCorruptArchive", data, err)
		}
	}
}

func TestResolveOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		entries   [][2]string
		domain    string
		wantEntry string
		wantFound bool
	}{
		{
			name: "container dir with extension wins",
			entries: [][2]string{
				entry("holdings.db", "root"),
				entry("databases/holdings.db", "preferred"),
			},
			domain:    "holdings",
			wantEntry: "databases/holdings.db",
			wantFound: true,
		},
		{
			name:      "root with extension",
			entries:   [][2]string{entry("holdings", "bare"), entry("holdings.db", "root")},
			domain:    "holdings",
			wantEntry: "holdings.db",
			wantFound: true,
		},
		{
			name:      "container dir without extension",
			entries:   [][2]string{entry("holdings", "bare"), entry("databases/holdings", "dir")},
			domain:    "holdings",
			wantEntry: "databases/holdings",
			wantFound: true,
		},
		{
			name:      "bare name",
			entries:   [][2]string{entry("holdings", "bare")},
			domain:    "holdings",
			wantEntry: "holdings",
			wantFound: true,
		},
		{
			name:      "substring fallback without extension",
			entries:   [][2]string{entry("backup/", ""), entry("backup/holdings", "nested")},
			domain:    "holdings",
			wantEntry: "backup/holdings",
			wantFound: true,
		},
		{
			name:      "substring fallback with extension",
			entries:   [][2]string{entry("export-2024/orders.db", "nested")},
			domain:    "orders",
			wantEntry: "export-2024/orders.db",
			wantFound: true,
		},
		{
			name: "junk skipped",
			entries: [][2]string{
				entry("__MACOSX/databases/._holdings.db", "junk"),
				entry(".DS_Store", "junk"),
				entry("old/holdings.db", "real"),
			},
			domain:    "holdings",
			wantEntry: "old/holdings.db",
			wantFound: true,
		},
		{
			name:      "other extension rejected",
			entries:   [][2]string{entry("notes/holdings.txt", "text")},
			domain:    "holdings",
			wantFound: false,
		},
		{
			name:      "directory entry rejected",
			entries:   [][2]string{entry("holdings/", "")},
			domain:    "holdings",
			wantFound: false,
		},
		{
			name:      "missing",
			entries:   [][2]string{entry("databases/orders.db", "x")},
			domain:    "holdings",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := Open(buildZip(t, tt.entries...), DefaultOptions())
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			got, found, err := a.Resolve(tt.domain)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got.Name != tt.wantEntry {
				t.Errorf("resolved %s, want %s", got.Name, tt.wantEntry)
			}
		})
	}
}

func TestResolveReturnsBytes(t *testing.T) {
	t.Parallel()

	a, err := Open(buildZip(t, entry("databases/app_config.db", "payload")), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got, found, err := a.Resolve("app_config")
	if err != nil || !found {
		t.Fatalf("Resolve failed: found=%v err=%v", found, err)
	}
	if string(got.Data) != "payload" {
		t.Errorf("data = %q, want payload", got.Data)
	}
}

func TestResolveEntryTooLarge(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxEntrySize = 4
	a, err := Open(buildZip(t, entry("databases/holdings.db", "more than four bytes")), opts)
	if err != nil {
		t.Fatal(err)
	}
	_, found, err := a.Resolve("holdings")
	if !found {
		t.Fatal("expected entry to be found")
	}
	if !errors.Is(err, ErrEntryTooLarge) || !errors.Is(err, ErrReadEntry) {
		t.Fatalf("error = %v, want ErrEntryTooLarge wrapping ErrReadEntry", err)
	}
}

func TestCustomLayout(t *testing.T) {
	t.Parallel()

	opts := Options{ContainerDir: "data", Extension: ".sqlite"}
	a, err := Open(buildZip(t,
		entry("databases/holdings.db", "default layout"),
		entry("data/holdings.sqlite", "custom layout"),
	), opts)
	if err != nil {
		t.Fatal(err)
	}
	if c := a.Candidates("holdings"); c[0] != "data/holdings.sqlite" || c[3] != "holdings" {
		t.Errorf("Candidates = %v", c)
	}
	got, _, _ := a.Resolve("holdings")
	if got == nil || got.Name != "data/holdings.sqlite" {
		t.Errorf("resolved %v, want data/holdings.sqlite", got)
	}
}

func TestEntriesMarksJunk(t *testing.T) {
	t.Parallel()

	a, err := Open(buildZip(t, entry("databases/", ""), entry("__MACOSX/x", "j"), entry("databases/orders.db", "o")), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	infos := a.Entries()
	if len(infos) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(infos))
	}
	if !infos[0].IsDir || !infos[1].Junk || infos[2].Junk || infos[2].Size != 1 {
		t.Errorf("unexpected entry info: %+v", infos)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "holdings.snapshot")
	if err := os.WriteFile(src, []byte("sqlite bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultOptions())
	written, err := w.AddFile("holdings", src)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if written.Name != "databases/holdings.db" || written.Size != 12 || len(written.Checksum) != 64 {
		t.Errorf("unexpected written entry: %+v", written)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	a, err := Open(buf.Bytes(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, found, err := a.Resolve("holdings")
	if err != nil || !found || string(got.Data) != "sqlite bytes" {
		t.Fatalf("round trip failed: found=%v err=%v", found, err)
	}
}
