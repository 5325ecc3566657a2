// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
importer.go - Per-Domain Snapshot Replay

One Importer serves every domain; the domain's row shape drives it:

 1. The archived database bytes are written to a temp file and opened read-only
 2. The snapshot must contain the domain table and every row-shape column
 3. Rows are read in rowid order (key order for WITHOUT ROWID tables) and
    coerced to the declared column types
 4. Each row is upserted into the live table on the natural key inside one
    transaction, which is committed only after the last row

Any failure rolls the transaction back, leaving the live table exactly as it
was. Columns present in the destination but absent from the row shape (such as
holdings.id) are never written, so surrogate keys assigned by the live
database survive a restore.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/tomtom215/stockdesk/internal/database"
	"github.com/tomtom215/stockdesk/internal/domains"
)

// Importer replays one domain's archived snapshot into its live database.
type Importer struct {
	domain  *domains.Domain
	tempDir string

	selectSQL string
	scanSQL   string
	upsertSQL string
}

// NewImporter creates an importer for d. Snapshots are materialized in tempDir
// (the OS default when empty).
func NewImporter(d *domains.Domain, tempDir string) *Importer {
	return &Importer{
		domain:    d,
		tempDir:   tempDir,
		selectSQL: buildSelectSQL(d, true),
		scanSQL:   buildSelectSQL(d, false),
		upsertSQL: buildUpsertSQL(d),
	}
}

// Import applies every row of source to dest and returns the number of rows
// written. Nothing is written unless every row succeeds.
func (imp *Importer) Import(ctx context.Context, dest *sql.DB, source []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	snapshotPath, err := imp.materialize(source)
	if err != nil {
		return 0, err
	}
	defer os.Remove(snapshotPath) //nolint:errcheck // Best effort cleanup, temp root is removed too

	src, err := database.OpenReadOnly(ctx, snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOpenSnapshot, err)
	}
	defer src.Close() //nolint:errcheck // Best effort cleanup

	if err := imp.checkSchema(ctx, src); err != nil {
		return 0, err
	}

	query := imp.selectSQL
	withoutRowID, err := database.WithoutRowID(ctx, src, imp.domain.Table)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOpenSnapshot, err)
	}
	if withoutRowID {
		query = imp.scanSQL
	}

	rows, err := src.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: query %s: %v", ErrOpenSnapshot, imp.domain.Table, err)
	}
	defer rows.Close() //nolint:errcheck // Best effort cleanup

	return imp.replay(ctx, dest, rows)
}

// materialize writes source to a temp file the SQLite driver can open.
func (imp *Importer) materialize(source []byte) (string, error) {
	f, err := os.CreateTemp(imp.tempDir, imp.domain.Name+"-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(source); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to close snapshot file: %w", err)
	}
	return name, nil
}

// checkSchema verifies the snapshot has the table and every row-shape column.
func (imp *Importer) checkSchema(ctx context.Context, src *sql.DB) error {
	cols, err := database.TableColumns(ctx, src, imp.domain.Table)
	if err != nil {
		// Non-SQLite bytes open fine and fail on the first read.
		return fmt.Errorf("%w: %v", ErrOpenSnapshot, err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: table %s not found in snapshot", ErrSchemaMismatch, imp.domain.Table)
	}

	var missing []string
	for _, c := range imp.domain.Columns {
		if !cols[strings.ToLower(c.Name)] {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s is missing columns %s",
			ErrSchemaMismatch, imp.domain.Table, strings.Join(missing, ", "))
	}
	return nil
}

func (imp *Importer) replay(ctx context.Context, dest *sql.DB, rows *sql.Rows) (n int64, err error) {
	tx, err := dest.BeginTx(ctx, nil)
	if err != nil {
		return 0, imp.writeError(ctx, "begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback() //nolint:errcheck // Rollback after failure, original error is returned
		}
	}()

	stmt, err := tx.PrepareContext(ctx, imp.upsertSQL)
	if err != nil {
		return 0, imp.writeError(ctx, "prepare upsert", err)
	}
	defer stmt.Close() //nolint:errcheck // Best effort cleanup

	width := len(imp.domain.Columns)
	raw := make([]any, width)
	ptrs := make([]any, width)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	args := make([]any, width)

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, fmt.Errorf("%w: row %d: %v", ErrRowDecode, n+1, err)
		}
		for i, col := range imp.domain.Columns {
			v, err := coerceValue(col, raw[i])
			if err != nil {
				return 0, fmt.Errorf("%w: row %d: %v", ErrRowDecode, n+1, err)
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, imp.writeError(ctx, fmt.Sprintf("row %d", n+1), err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: reading %s: %v", ErrOpenSnapshot, imp.domain.Table, err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, imp.writeError(ctx, "commit", err)
	}
	committed = true
	return n, nil
}

// writeError classifies a destination failure, preferring the context error
// when the driver aborted because of cancellation.
func (imp *Importer) writeError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s %s: %v", ErrWrite, imp.domain.Table, op, err)
}

// buildSelectSQL reads the row shape from a snapshot. Each column is selected
// through unary plus, which returns the stored value unchanged but drops the
// declared type, so the driver does not reparse DATETIME text into time.Time.
func buildSelectSQL(d *domains.Domain, ordered bool) string {
	names := d.ColumnNames()
	exprs := make([]string, len(names))
	for i, n := range names {
		q := database.QuoteIdent(n)
		exprs[i] = "+" + q + " AS " + q
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), database.QuoteIdent(d.Table))
	if ordered {
		query += " ORDER BY rowid"
	}
	return query
}

// buildUpsertSQL renders INSERT ... ON CONFLICT(key) DO UPDATE for the row
// shape. When every column is part of the key there is nothing to update.
func buildUpsertSQL(d *domains.Domain) string {
	names := d.ColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	var sets []string
	for _, name := range names {
		if d.IsKey(name) {
			continue
		}
		q := database.QuoteIdent(name)
		sets = append(sets, q+" = excluded."+q)
	}

	conflict := "DO NOTHING"
	if len(sets) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		database.QuoteIdent(d.Table), quoteList(names), placeholders, quoteList(d.Key), conflict)
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = database.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
