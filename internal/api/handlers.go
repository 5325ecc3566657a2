// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/domains"
)

// BackupManager is the subset of *backup.Manager the handlers use.
type BackupManager interface {
	RestoreArchive(ctx context.Context, data []byte, opts backup.RestoreOptions) (*backup.RestoreResult, error)
	RestoreFromBackup(ctx context.Context, backupID string, opts backup.RestoreOptions) (*backup.RestoreResult, error)
	CreateBackup(ctx context.Context, notes string) (*backup.Backup, error)
	ListBackups(opts backup.BackupListOptions) ([]*backup.Backup, error)
	GetBackup(backupID string) (*backup.Backup, error)
	OpenBackup(backupID string) (*backup.Backup, io.ReadSeekCloser, error)
	DeleteBackup(backupID string) error
	GetStats() *backup.BackupStats
	Registry() *domains.Registry
}

// DefaultMaxUploadBytes bounds restore uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 512 << 20

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	manager        BackupManager
	maxUploadBytes int64
	startTime      time.Time
	version        string
}

// NewHandler creates the handler set. maxUploadBytes <= 0 uses DefaultMaxUploadBytes.
func NewHandler(manager BackupManager, maxUploadBytes int64, version string) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		manager:        manager,
		maxUploadBytes: maxUploadBytes,
		startTime:      time.Now(),
		version:        version,
	}
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Uptime  float64             `json:"uptime_seconds"`
	Domains int                 `json:"domains"`
	Backups *backup.BackupStats `json:"backups,omitempty"`
}

// Health reports liveness and catalog statistics.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.manager != nil {
		resp.Domains = h.manager.Registry().Len()
		resp.Backups = h.manager.GetStats()
	}
	respondSuccess(w, http.StatusOK, resp)
}

// DomainInfo describes one registered domain.
type DomainInfo struct {
	Name    string       `json:"name"`
	Table   string       `json:"table"`
	Key     []string     `json:"key"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column of a domain row shape.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Domains lists the registry in registration order.
func (h *Handler) Domains(w http.ResponseWriter, _ *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	all := h.manager.Registry().All()
	out := make([]DomainInfo, 0, len(all))
	for _, d := range all {
		info := DomainInfo{
			Name:    d.Name,
			Table:   d.Table,
			Key:     d.Key,
			Columns: make([]ColumnInfo, len(d.Columns)),
		}
		for i, c := range d.Columns {
			info.Columns[i] = ColumnInfo{Name: c.Name, Type: c.Type.String(), Nullable: c.Nullable}
		}
		out = append(out, info)
	}
	respondList(w, out, len(out))
}

// checkManagerAvailable writes a 503 and returns false when no manager is wired.
func (h *Handler) checkManagerAvailable(w http.ResponseWriter) bool {
	if h.manager == nil {
		respondError(w, http.StatusServiceUnavailable, CodeBackupDisabled, "Backup and restore are not configured", nil)
		return false
	}
	return true
}
