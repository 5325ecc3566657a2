// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
)

// WrittenEntry records one file added to an archive.
type WrittenEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Writer builds an archive in the preferred layout.
type Writer struct {
	zw      *zip.Writer
	opts    Options
	entries []WrittenEntry
}

// NewWriter returns a Writer that streams a zip container to w.
func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{zw: zip.NewWriter(w), opts: opts.withDefaults()}
}

// EntryName returns the archive path used for domain.
func (w *Writer) EntryName(domain string) string {
	name := domain + w.opts.Extension
	if w.opts.ContainerDir == "" {
		return name
	}
	return path.Join(w.opts.ContainerDir, name)
}

// AddFile copies the file at srcPath into the archive as the entry for domain.
//
//nolint:gosec // G304: srcPath is a snapshot inside our own temp directory
func (w *Writer) AddFile(domain, srcPath string) (WrittenEntry, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return WrittenEntry{}, fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	header := &zip.FileHeader{
		Name:     w.EntryName(domain),
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	header.SetMode(0o640)

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return WrittenEntry{}, fmt.Errorf("failed to write header for %s: %w", header.Name, err)
	}

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, hasher), file)
	if err != nil {
		return WrittenEntry{}, fmt.Errorf("failed to copy %s to archive: %w", srcPath, err)
	}

	entry := WrittenEntry{
		Name:     header.Name,
		Size:     n,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}
	w.entries = append(w.entries, entry)
	return entry, nil
}

// Entries returns the entries written so far.
func (w *Writer) Entries() []WrittenEntry {
	return w.entries
}

// Close finishes the archive. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
