// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
stores.go - Per-Domain SQLite Stores

Every domain persists to its own SQLite file, <data dir>/<domain>.db. Stores
owns those connections for the life of the process:

  - Open lazily creates the file, applies the domain DDL and caches the handle
  - Connections are single-writer (MaxOpenConns = 1) so restore transactions
    never contend with each other inside one database
  - WAL journaling and a busy timeout are set through DSN parameters

Bind attaches Stores.Open to each domain definition as its Initializer, which
is how the backup layer obtains destination connections without knowing
where files live.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for domain stores

	"github.com/tomtom215/stockdesk/internal/domains"
	"github.com/tomtom215/stockdesk/internal/logging"
)

// DriverName is the database/sql driver used for every domain store.
const DriverName = "sqlite3"

// FileExtension is appended to the domain name to form the database file name.
const FileExtension = ".db"

// Stores manages one SQLite database per domain under a data directory.
type Stores struct {
	dir string

	mu    sync.Mutex
	conns map[string]*sql.DB
}

// NewStores creates the data directory if needed.
func NewStores(dir string) (*Stores, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Stores{dir: dir, conns: make(map[string]*sql.DB)}, nil
}

// Dir returns the data directory.
func (s *Stores) Dir() string {
	return s.dir
}

// Path returns the database file path for a domain name.
func (s *Stores) Path(name string) string {
	return filepath.Join(s.dir, name+FileExtension)
}

// Open returns the cached connection for d, initializing it on first use.
func (s *Stores) Open(ctx context.Context, d *domains.Domain) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.conns[d.Name]; ok {
		return db, nil
	}

	path := s.Path(d.Name)
	dsn := fileURI(path, "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to ping %s: %w", path, err)
	}

	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("failed to initialize schema for %s: %w", d.Name, err)
		}
	}

	logging.Debug().Str("domain", d.Name).Str("path", path).Msg("Domain store opened")
	s.conns[d.Name] = db
	return db, nil
}

// Bind returns copies of ds whose Init opens the domain through s.
func (s *Stores) Bind(ds []domains.Domain) []domains.Domain {
	bound := make([]domains.Domain, len(ds))
	for i := range ds {
		d := ds[i]
		d.Init = func(ctx context.Context) (*sql.DB, error) {
			return s.Open(ctx, &d)
		}
		bound[i] = d
	}
	return bound
}

// Close closes every open domain connection.
func (s *Stores) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, db := range s.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
		delete(s.conns, name)
	}
	return firstErr
}
