// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"fmt"
	"strings"
	"time"
)

// DomainStatus is the state of one domain within a restore.
type DomainStatus string

const (
	DomainNotAttempted DomainStatus = "not_attempted"
	DomainSearching    DomainStatus = "searching"
	DomainFound        DomainStatus = "found"
	DomainImporting    DomainStatus = "importing"
	DomainCommitted    DomainStatus = "committed"
	DomainFailed       DomainStatus = "failed"
	DomainNotFound     DomainStatus = "not_found"
	DomainCancelled    DomainStatus = "cancelled"
)

// IsTerminal reports whether the domain has finished processing.
func (s DomainStatus) IsTerminal() bool {
	switch s {
	case DomainCommitted, DomainFailed, DomainNotFound, DomainCancelled:
		return true
	default:
		return false
	}
}

// ImportResult is the outcome of one domain.
type ImportResult struct {
	Domain   string        `json:"domain"`
	Status   DomainStatus  `json:"status"`
	Entry    string        `json:"entry,omitempty"`
	Rows     int64         `json:"rows"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	// Err is the classified error; Error is its message for serialization.
	Err error `json:"-"`
}

// RestoreReport aggregates the per-domain outcomes of one restore call.
type RestoreReport struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Attempted counts the domains requested, including unknown names.
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`

	Committed []string          `json:"committed"`
	Failed    map[string]string `json:"failed"`
	NotFound  []string          `json:"not_found"`
	Cancelled []string          `json:"cancelled,omitempty"`

	// Entries lists the archive contents for diagnostics.
	Entries []string `json:"entries,omitempty"`

	Results []ImportResult `json:"results"`
}

func newRestoreReport(id string, names []string) *RestoreReport {
	r := &RestoreReport{
		ID:        id,
		StartedAt: time.Now(),
		Attempted: len(names),
		Committed: []string{},
		Failed:    make(map[string]string),
		NotFound:  []string{},
		Results:   make([]ImportResult, len(names)),
	}
	for i, name := range names {
		r.Results[i] = ImportResult{Domain: name, Status: DomainNotAttempted}
	}
	return r
}

// record stores a terminal result and updates the aggregates.
func (r *RestoreReport) record(i int, res ImportResult) {
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	r.Results[i] = res

	switch res.Status {
	case DomainCommitted:
		r.Succeeded++
		r.Committed = append(r.Committed, res.Domain)
	case DomainFailed:
		r.Failed[res.Domain] = res.Error
	case DomainNotFound:
		r.NotFound = append(r.NotFound, res.Domain)
	case DomainCancelled:
		r.Cancelled = append(r.Cancelled, res.Domain)
	}
}

// Result returns the outcome for domain.
func (r *RestoreReport) Result(domain string) (ImportResult, bool) {
	for _, res := range r.Results {
		if res.Domain == domain {
			return res, true
		}
	}
	return ImportResult{}, false
}

// TotalRows returns the number of rows written across committed domains.
func (r *RestoreReport) TotalRows() int64 {
	var n int64
	for _, res := range r.Results {
		if res.Status == DomainCommitted {
			n += res.Rows
		}
	}
	return n
}

// Summary renders a one-line human readable outcome, e.g.
// "2/5 domains restored; failed: orders (schema mismatch: ...); not found: holdings, trend_lines".
func (r *RestoreReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d domains restored", r.Succeeded, r.Attempted)

	if len(r.Failed) > 0 {
		parts := make([]string, 0, len(r.Failed))
		for _, res := range r.Results {
			if res.Status == DomainFailed {
				parts = append(parts, fmt.Sprintf("%s (%s)", res.Domain, res.Error))
			}
		}
		b.WriteString("; failed: ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if len(r.NotFound) > 0 {
		b.WriteString("; not found: ")
		b.WriteString(strings.Join(r.NotFound, ", "))
	}
	if len(r.Cancelled) > 0 {
		b.WriteString("; cancelled: ")
		b.WriteString(strings.Join(r.Cancelled, ", "))
	}
	return b.String()
}
