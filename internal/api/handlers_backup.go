// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/validation"
)

// maxCreateBodyBytes bounds the JSON body of POST /api/v1/backups.
const maxCreateBodyBytes = 64 << 10

// CreateBackupRequest is the optional body of POST /api/v1/backups.
type CreateBackupRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// CreateBackup exports every domain into a new stored archive.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	var req CreateBackupRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body", err)
			return
		}
	}
	if err := validation.ValidateStruct(&req); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			respondValidationError(w, err, verr.Fields)
			return
		}
		respondValidationError(w, err, nil)
		return
	}

	created, err := h.manager.CreateBackup(r.Context(), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrRestoreInProgress):
			respondError(w, http.StatusConflict, CodeInProgress, "Another backup or restore is in progress", err)
		case errors.Is(err, backup.ErrBackupsDisabled):
			respondError(w, http.StatusServiceUnavailable, CodeBackupDisabled, "Stored backups are disabled", err)
		default:
			respondErrorWithData(w, http.StatusInternalServerError, CodeBackupFailed, "Failed to create backup", created, err)
		}
		return
	}

	respondSuccess(w, http.StatusCreated, created)
}

// ListBackups returns stored exports, newest first by default.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	opts, err := parseListOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	backups, err := h.manager.ListBackups(opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeListFailed, "Failed to list backups", err)
		return
	}
	respondList(w, backups, len(backups))
}

// parseListOptions reads limit, offset, sort, status and trigger.
func parseListOptions(r *http.Request) (backup.BackupListOptions, error) {
	opts := backup.BackupListOptions{
		Limit:    getIntParam(r, "limit", 100),
		Offset:   getIntParam(r, "offset", 0),
		SortDesc: r.URL.Query().Get("sort") != "asc",
	}
	if opts.Limit < 1 || opts.Limit > 1000 {
		return opts, fmt.Errorf("limit must be between 1 and 1000")
	}
	if opts.Offset < 0 {
		return opts, fmt.Errorf("offset must not be negative")
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := backup.BackupStatus(v)
		switch status {
		case backup.StatusInProgress, backup.StatusCompleted, backup.StatusFailed:
			opts.Status = &status
		default:
			return opts, fmt.Errorf("unknown status %q", v)
		}
	}
	if v := r.URL.Query().Get("trigger"); v != "" {
		trigger := backup.BackupTrigger(v)
		switch trigger {
		case backup.TriggerManual, backup.TriggerScheduled, backup.TriggerPreRestore:
			opts.Trigger = &trigger
		default:
			return opts, fmt.Errorf("unknown trigger %q", v)
		}
	}
	return opts, nil
}

// GetBackup returns one stored export.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	b, err := h.manager.GetBackup(chi.URLParam(r, "id"))
	if err != nil {
		h.respondBackupLookupError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, b)
}

// DownloadBackup streams the archive of a completed export.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	b, file, err := h.manager.OpenBackup(chi.URLParam(r, "id"))
	if err != nil {
		h.respondBackupLookupError(w, err)
		return
	}
	defer file.Close() //nolint:errcheck // read-only file

	name := filepath.Base(b.FilePath)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if b.Checksum != "" {
		w.Header().Set("X-Checksum-SHA256", b.Checksum)
	}
	http.ServeContent(w, r, name, b.CreatedAt, file)
}

// DeleteBackup removes a stored export and its archive.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.manager.DeleteBackup(id); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "Backup not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeDeleteFailed, "Failed to delete backup", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *Handler) respondBackupLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrBackupNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "Backup not found", nil)
	case errors.Is(err, backup.ErrBackupsDisabled):
		respondError(w, http.StatusServiceUnavailable, CodeBackupDisabled, "Stored backups are disabled", nil)
	default:
		respondError(w, http.StatusConflict, CodeBackupFailed, err.Error(), err)
	}
}
