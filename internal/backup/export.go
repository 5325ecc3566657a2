// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
export.go - Archive Export

Export writes one archive holding every requested domain database:

 1. Each live database is copied with VACUUM INTO, which yields a consistent,
    compacted snapshot without blocking writers for longer than the copy
 2. Rows are counted on the snapshot so the catalog matches the file exactly
 3. The snapshot is added as databases/<domain>.db with its SHA-256

Snapshots live in a scratch directory that is removed when Export returns.
The archive layout is exactly the first candidate the restorer tries, so an
export always restores without falling back to heuristics.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/database"
	"github.com/tomtom215/stockdesk/internal/domains"
	"github.com/tomtom215/stockdesk/internal/logging"
)

// Exporter packages domain databases into an archive.
type Exporter struct {
	registry *domains.Registry
	opts     archive.Options
	tempDir  string
}

// NewExporter creates an exporter over registry.
func NewExporter(registry *domains.Registry, opts archive.Options, tempDir string) *Exporter {
	return &Exporter{registry: registry, opts: opts, tempDir: tempDir}
}

// Export writes an archive of the named domains (all when names is empty) to w.
// Unlike restore, export is all-or-nothing: any failing domain aborts it.
func (e *Exporter) Export(ctx context.Context, w io.Writer, names []string) ([]DomainFile, error) {
	selected, err := e.selectDomains(names)
	if err != nil {
		return nil, err
	}

	tempRoot, err := os.MkdirTemp(e.tempDir, "stockdesk-export-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create export temp directory: %w", err)
	}
	defer os.RemoveAll(tempRoot) //nolint:errcheck // Best effort cleanup

	aw := archive.NewWriter(w, e.opts)
	files := make([]DomainFile, 0, len(selected))

	for _, d := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := e.exportDomain(ctx, aw, d, tempRoot)
		if err != nil {
			return nil, err
		}
		files = append(files, file)

		logging.Ctx(ctx).Debug().
			Str("domain", d.Name).
			Str("entry", file.Entry).
			Int64("rows", file.Rows).
			Int64("size", file.Size).
			Msg("Domain exported")
	}

	if err := aw.Close(); err != nil {
		return nil, err
	}
	return files, nil
}

func (e *Exporter) exportDomain(ctx context.Context, aw *archive.Writer, d *domains.Domain, tempRoot string) (DomainFile, error) {
	if d.Init == nil {
		return DomainFile{}, fmt.Errorf("%w: %s has no initializer", ErrOpenDomain, d.Name)
	}
	db, err := d.Init(ctx)
	if err != nil {
		return DomainFile{}, fmt.Errorf("%w: %s: %v", ErrOpenDomain, d.Name, err)
	}

	snapshotPath := filepath.Join(tempRoot, d.Name+database.FileExtension)
	if err := database.Snapshot(ctx, db, snapshotPath); err != nil {
		return DomainFile{}, err
	}

	rows, err := countSnapshotRows(ctx, snapshotPath, d.Table)
	if err != nil {
		return DomainFile{}, err
	}

	written, err := aw.AddFile(d.Name, snapshotPath)
	if err != nil {
		return DomainFile{}, err
	}

	return DomainFile{
		Domain:   d.Name,
		Entry:    written.Name,
		Rows:     rows,
		Size:     written.Size,
		Checksum: written.Checksum,
	}, nil
}

func countSnapshotRows(ctx context.Context, path, table string) (int64, error) {
	snap, err := database.OpenReadOnly(ctx, path)
	if err != nil {
		return 0, err
	}
	defer snap.Close() //nolint:errcheck // Best effort cleanup
	return database.CountRows(ctx, snap, table)
}

// selectDomains resolves names against the registry, preserving order and
// dropping duplicates.
func (e *Exporter) selectDomains(names []string) ([]*domains.Domain, error) {
	if len(names) == 0 {
		return e.registry.All(), nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]*domains.Domain, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		d, err := e.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
