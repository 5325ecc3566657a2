// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package archive reads and writes the zip container used for Stockdesk backups.
//
// A backup archive holds one SQLite database per domain. The preferred layout
// is <container dir>/<domain><ext> (databases/holdings.db), but archives
// produced by hand or by older releases put entries at the root, drop the
// extension, or nest them in an extra folder. Resolve tries the exact layouts
// first and then falls back to a substring scan that ignores OS junk entries.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Archive errors. Callers use errors.Is to classify failures.
var (
	// ErrCorruptArchive is returned when the bytes are not a readable zip container.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrReadEntry is returned when a resolved entry cannot be decompressed.
	ErrReadEntry = errors.New("failed to read archive entry")

	// ErrEntryTooLarge is returned when an entry exceeds Options.MaxEntrySize.
	// It wraps ErrReadEntry.
	ErrEntryTooLarge = fmt.Errorf("%w: entry exceeds size limit", ErrReadEntry)
)

// DefaultMaxEntrySize bounds the decompressed size of one entry (1GB).
const DefaultMaxEntrySize int64 = 1 << 30

// Options configures entry naming and limits.
type Options struct {
	// ContainerDir is the preferred directory for database entries.
	ContainerDir string

	// Extension is the preferred file extension for database entries.
	Extension string

	// MaxEntrySize bounds decompressed entry size to prevent decompression bombs.
	MaxEntrySize int64
}

// DefaultOptions returns the standard layout: databases/<domain>.db.
func DefaultOptions() Options {
	return Options{
		ContainerDir: "databases",
		Extension:    ".db",
		MaxEntrySize: DefaultMaxEntrySize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Extension == "" {
		o.Extension = d.Extension
	}
	if o.MaxEntrySize <= 0 {
		o.MaxEntrySize = d.MaxEntrySize
	}
	return o
}

// EntryInfo describes one archive entry for diagnostics.
type EntryInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"is_dir"`
	Junk  bool   `json:"junk"`
}

// Entry is a resolved entry and its decompressed bytes.
type Entry struct {
	Name string
	Data []byte
}

// Archive is an opened, read-only archive.
type Archive struct {
	zr     *zip.Reader
	opts   Options
	byName map[string]*zip.File
}

// Open parses data as a zip archive.
func Open(data []byte, opts Options) (*Archive, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorruptArchive)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	a := &Archive{
		zr:     zr,
		opts:   opts.withDefaults(),
		byName: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		// First occurrence wins for duplicate names.
		if _, dup := a.byName[f.Name]; !dup {
			a.byName[f.Name] = f
		}
	}
	return a, nil
}

// Entries lists every entry in archive order.
func (a *Archive) Entries() []EntryInfo {
	out := make([]EntryInfo, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		out = append(out, EntryInfo{
			Name:  f.Name,
			Size:  int64(f.UncompressedSize64), //nolint:gosec // sizes are bounded on read
			IsDir: isDir(f),
			Junk:  isJunk(f.Name),
		})
	}
	return out
}

// Candidates returns the exact names tried for domain, in priority order.
func (a *Archive) Candidates(domain string) []string {
	return CandidateNames(domain, a.opts)
}

// CandidateNames returns the exact entry names tried for domain under opts.
func CandidateNames(domain string, opts Options) []string {
	opts = opts.withDefaults()
	withExt := domain + opts.Extension
	names := make([]string, 0, 4)
	if opts.ContainerDir != "" {
		names = append(names, path.Join(opts.ContainerDir, withExt))
	}
	names = append(names, withExt)
	if opts.ContainerDir != "" {
		names = append(names, path.Join(opts.ContainerDir, domain))
	}
	return append(names, domain)
}

// Resolve finds the entry for domain and returns its bytes.
// found is false when no entry matches; that is not an error.
func (a *Archive) Resolve(domain string) (entry *Entry, found bool, err error) {
	f := a.find(domain)
	if f == nil {
		return nil, false, nil
	}
	data, err := a.read(f)
	if err != nil {
		return nil, true, err
	}
	return &Entry{Name: f.Name, Data: data}, true, nil
}

func (a *Archive) find(domain string) *zip.File {
	if domain == "" {
		return nil
	}
	for _, name := range a.Candidates(domain) {
		if f, ok := a.byName[name]; ok && !isDir(f) && !isJunk(f.Name) {
			return f
		}
	}

	for _, f := range a.zr.File {
		if isDir(f) || isJunk(f.Name) {
			continue
		}
		if !strings.Contains(f.Name, domain) {
			continue
		}
		ext := path.Ext(path.Base(f.Name))
		if ext == a.opts.Extension || ext == "" {
			return f
		}
	}
	return nil
}

func (a *Archive) read(f *zip.File) ([]byte, error) {
	limit := a.opts.MaxEntrySize
	if f.UncompressedSize64 > uint64(limit) { //nolint:gosec // limit is positive
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadEntry, f.Name, err)
	}
	defer rc.Close() //nolint:errcheck // Best effort cleanup

	// The header size can lie; enforce the limit on the stream too.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadEntry, f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrEntryTooLarge, f.Name, limit)
	}
	return data, nil
}

func isDir(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// isJunk reports whether name is filesystem metadata added by archivers.
func isJunk(name string) bool {
	for _, part := range strings.Split(strings.Trim(name, "/"), "/") {
		if part == "__MACOSX" {
			return true
		}
	}
	base := path.Base(name)
	return base == ".DS_Store" || base == "Thumbs.db" || strings.HasPrefix(base, "._")
}
