// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package domains describes the logical data domains Stockdesk persists.
//
// Each domain lives in its own SQLite database named after the domain and
// owns exactly one table. A Domain carries the declarative row shape used by
// backup and restore (ordered typed columns plus the natural key) and the
// Initializer that yields a ready destination connection. Domains are looked
// up through a Registry built once at startup.
package domains

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ColumnType is the storage class a column value is coerced to on restore.
type ColumnType int

const (
	// Integer columns hold int64 values.
	Integer ColumnType = iota
	// Real columns hold float64 values.
	Real
	// Text columns hold string values.
	Text
)

// String returns the SQLite type name.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column is one field of a domain row shape.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Initializer returns a ready connection to the domain's live database,
// creating the schema if it does not exist yet.
type Initializer func(ctx context.Context) (*sql.DB, error)

// Domain is a named logical data set with one table.
type Domain struct {
	// Name is the stable identifier, also the archive entry stem.
	Name string

	// Table is the table replayed on restore.
	Table string

	// Columns is the ordered row shape.
	Columns []Column

	// Key lists the natural key columns. Rows in the archive replace
	// destination rows with the same key.
	Key []string

	// Schema is the DDL applied when the database is initialized.
	Schema []string

	// Init is bound by the database layer.
	Init Initializer
}

// ColumnNames returns the column names in row-shape order.
func (d *Domain) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// IsKey reports whether column is part of the natural key.
func (d *Domain) IsKey(column string) bool {
	for _, k := range d.Key {
		if k == column {
			return true
		}
	}
	return false
}

// Validate checks that the row shape is internally consistent.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("domain name is required")
	}
	if d.Table == "" {
		return fmt.Errorf("domain %s: table is required", d.Name)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("domain %s: at least one column is required", d.Name)
	}
	if len(d.Key) == 0 {
		return fmt.Errorf("domain %s: natural key is required", d.Name)
	}

	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return fmt.Errorf("domain %s: duplicate column %s", d.Name, c.Name)
		}
		seen[lower] = true
	}
	for _, k := range d.Key {
		if !seen[strings.ToLower(k)] {
			return fmt.Errorf("domain %s: key column %s is not in the row shape", d.Name, k)
		}
	}
	return nil
}
