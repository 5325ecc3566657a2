// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tomtom215/stockdesk/internal/logging"
)

// OpenReadOnly opens a SQLite file without taking write locks or creating it.
// Used for snapshots materialized from archives.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, fileURI(path, "mode=ro&immutable=1"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s read-only: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return db, nil
}

// TableColumns returns the column names of table, lowercased.
// An empty result means the table does not exist.
func TableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer closeWithLog(rows, "table_info rows")

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}

// WithoutRowID reports whether table was created WITHOUT ROWID.
// A missing table reports false.
func WithoutRowID(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var wr bool
	err := db.QueryRowContext(ctx,
		"SELECT wr FROM pragma_table_list WHERE schema = 'main' AND name = ?", table).Scan(&wr)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	return wr, nil
}

// fileURI builds a SQLite URI filename for path. Each path segment is
// escaped so that '?', '#' and '%' in directory names reach the VFS intact.
func fileURI(path, query string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	uri := "file:" + strings.Join(segments, "/")
	if query != "" {
		uri += "?" + query
	}
	return uri
}

// Snapshot writes a consistent copy of db to dest with VACUUM INTO.
// dest must not exist. The copy is switched to rollback-journal mode so it is
// a single self-contained file even when the source uses WAL.
func Snapshot(ctx context.Context, db *sql.DB, dest string) error {
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("failed to snapshot into %s: %w", dest, err)
	}

	snap, err := sql.Open(DriverName, fileURI(dest, "_journal_mode=DELETE"))
	if err != nil {
		return fmt.Errorf("failed to open snapshot %s: %w", dest, err)
	}
	defer closeWithLog(snap, "snapshot")

	if _, err := snap.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return fmt.Errorf("failed to finalize snapshot %s: %w", dest, err)
	}
	return nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// QuoteIdent quotes a SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
