// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
restore.go - Restore Orchestration

Restore drives every requested domain through its state machine:

	not_attempted -> searching -> found -> importing -> committed
	                     |                      \-----> failed
	                     \-> not_found

Domains run strictly in order, one at a time. A failed or missing domain is
recorded and the loop continues with the next one; nothing already committed
is ever rolled back. The context is checked between domains (and by the
importer between rows). On cancellation the in-flight domain rolls back, the
remaining domains are marked cancelled and the context error is returned
together with the report.

The call as a whole fails only when the archive cannot be opened, when it is
cancelled, or when fewer than MinSucceeded domains committed.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/stockdesk/internal/archive"
	"github.com/tomtom215/stockdesk/internal/domains"
	"github.com/tomtom215/stockdesk/internal/logging"
	"github.com/tomtom215/stockdesk/internal/metrics"
)

// DefaultMinSucceeded is the number of domains that must commit for a restore
// to count as successful.
const DefaultMinSucceeded = 1

// RestorerConfig configures a Restorer.
type RestorerConfig struct {
	// Archive controls entry naming and size limits.
	Archive archive.Options

	// TempDir is where the per-call scratch directory is created.
	TempDir string

	// MinSucceeded is the success threshold; values below 1 use DefaultMinSucceeded.
	MinSucceeded int
}

// Restorer applies archives to the registered domains.
type Restorer struct {
	registry *domains.Registry
	cfg      RestorerConfig
}

// NewRestorer creates a restorer over registry.
func NewRestorer(registry *domains.Registry, cfg RestorerConfig) *Restorer {
	if cfg.MinSucceeded < 1 {
		cfg.MinSucceeded = DefaultMinSucceeded
	}
	return &Restorer{registry: registry, cfg: cfg}
}

// MinSucceeded returns the configured success threshold.
func (r *Restorer) MinSucceeded() int {
	return r.cfg.MinSucceeded
}

// Restore applies data to the named domains (every registered domain when
// names is empty) and reports what happened to each.
//
// The returned report is non-nil whenever the archive could be opened, even
// when an error is returned.
func (r *Restorer) Restore(ctx context.Context, data []byte, names []string) (*RestoreReport, error) {
	return r.restore(ctx, data, names, r.cfg.MinSucceeded)
}

func (r *Restorer) restore(ctx context.Context, data []byte, names []string, minSucceeded int) (*RestoreReport, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx)
	start := time.Now()

	names = r.normalizeNames(names)
	report := newRestoreReport(uuid.New().String(), names)

	ar, err := archive.Open(data, r.cfg.Archive)
	if err != nil {
		report.Duration = time.Since(start)
		metrics.RecordRestore("corrupt", report.Duration)
		logger.Error().Err(err).Int("bytes", len(data)).Msg("Restore rejected: archive unreadable")
		return report, err
	}

	for _, e := range ar.Entries() {
		if e.IsDir {
			continue
		}
		report.Entries = append(report.Entries, e.Name)
		logger.Debug().Str("entry", e.Name).Int64("size", e.Size).Bool("junk", e.Junk).Msg("Archive entry")
	}

	tempRoot, err := os.MkdirTemp(r.cfg.TempDir, "stockdesk-restore-*")
	if err != nil {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("failed to create restore temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempRoot); err != nil {
			logger.Warn().Err(err).Str("path", tempRoot).Msg("Failed to remove restore temp directory")
		}
	}()

	logger.Info().
		Str("restore_id", report.ID).
		Int("domains", len(names)).
		Int("entries", len(report.Entries)).
		Msg("Restore started")

	for i, name := range names {
		if ctx.Err() != nil {
			r.cancelFrom(report, names, i)
			break
		}

		res := r.restoreDomain(ctx, ar, name, tempRoot)
		report.record(i, res)
		r.logResult(logger, res)
		metrics.RecordRestoreDomain(res.Domain, string(res.Status), res.Rows)

		if res.Status == DomainCancelled {
			r.cancelFrom(report, names, i+1)
			break
		}
	}

	report.Duration = time.Since(start)
	summary := report.Summary()

	if err := ctx.Err(); err != nil {
		metrics.RecordRestore("cancelled", report.Duration)
		logger.Warn().Str("restore_id", report.ID).Str("summary", summary).Msg("Restore cancelled")
		return report, fmt.Errorf("restore cancelled (%s): %w", summary, err)
	}

	if report.Succeeded < minSucceeded {
		metrics.RecordRestore("no_usable_domains", report.Duration)
		logger.Error().
			Str("restore_id", report.ID).
			Int("succeeded", report.Succeeded).
			Int("required", minSucceeded).
			Str("summary", summary).
			Msg("Restore failed: not enough domains restored")
		return report, fmt.Errorf("%w: %s", ErrNoUsableDomains, summary)
	}

	metrics.RecordRestore("ok", report.Duration)
	logger.Info().
		Str("restore_id", report.ID).
		Int64("rows", report.TotalRows()).
		Dur("duration", report.Duration).
		Str("summary", summary).
		Msg("Restore completed")
	return report, nil
}

// restoreDomain runs one domain to a terminal state.
func (r *Restorer) restoreDomain(ctx context.Context, ar *archive.Archive, name, tempRoot string) ImportResult {
	start := time.Now()
	res := ImportResult{Domain: name, Status: DomainSearching}
	finish := func(status DomainStatus, err error) ImportResult {
		res.Status = status
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	// Unknown names never touch the archive.
	d, err := r.registry.Lookup(name)
	if err != nil {
		return finish(DomainFailed, err)
	}

	entry, found, err := ar.Resolve(name)
	if err != nil {
		return finish(DomainFailed, err)
	}
	if !found {
		return finish(DomainNotFound, fmt.Errorf("%w: %s", ErrDomainNotFound, name))
	}
	res.Entry = entry.Name
	res.Status = DomainFound

	if d.Init == nil {
		return finish(DomainFailed, fmt.Errorf("%w: %s has no initializer", ErrOpenDomain, name))
	}
	dest, err := d.Init(ctx)
	if err != nil {
		if isCancellation(ctx, err) {
			return finish(DomainCancelled, ctx.Err())
		}
		return finish(DomainFailed, fmt.Errorf("%w: %s: %v", ErrOpenDomain, name, err))
	}

	res.Status = DomainImporting
	rows, err := NewImporter(d, tempRoot).Import(ctx, dest, entry.Data)
	if err != nil {
		if isCancellation(ctx, err) {
			return finish(DomainCancelled, ctx.Err())
		}
		return finish(DomainFailed, err)
	}
	res.Rows = rows
	return finish(DomainCommitted, nil)
}

// cancelFrom marks names[from:] cancelled.
func (r *Restorer) cancelFrom(report *RestoreReport, names []string, from int) {
	for i := from; i < len(names); i++ {
		report.record(i, ImportResult{Domain: names[i], Status: DomainCancelled})
		metrics.RecordRestoreDomain(names[i], string(DomainCancelled), 0)
	}
}

func (r *Restorer) logResult(logger *zerolog.Logger, res ImportResult) {
	var event *zerolog.Event
	switch res.Status {
	case DomainCommitted:
		event = logger.Info()
	case DomainNotFound:
		event = logger.Info().Strs("candidates", archive.CandidateNames(res.Domain, r.cfg.Archive))
	case DomainCancelled:
		event = logger.Warn()
	default:
		event = logger.Warn().Err(res.Err)
	}
	event.
		Str("domain", res.Domain).
		Str("status", string(res.Status)).
		Str("entry", res.Entry).
		Int64("rows", res.Rows).
		Dur("duration", res.Duration).
		Msg("Domain restore finished")
}

// normalizeNames trims and de-duplicates names, keeping first occurrence
// order. Empty input selects every registered domain.
func (r *Restorer) normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return r.registry.Names()
	}
	return out
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
