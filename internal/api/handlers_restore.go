// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
handlers_restore.go - Restore Endpoints

POST /api/v1/restore accepts the archive either as the raw request body
(application/zip or application/octet-stream) or as the multipart field
"file". Query parameters:

	domains=holdings,orders   limit the restore to these domains
	pre_restore_backup=false  skip the safety export for this request
	min_succeeded=2           require at least this many committed domains

Status mapping:

	200  at least min_succeeded domains committed; data is the RestoreResult
	400  the upload is not a readable archive, or the query is invalid
	409  another export or restore is running
	413  the upload exceeds the configured size limit
	422  fewer than min_succeeded domains committed; data still has the report
	499  the client went away mid-restore; committed domains stay committed
*/

//nolint:staticcheck // File documentation, not package doc
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/logging"
	"github.com/tomtom215/stockdesk/internal/validation"
)

// statusClientClosedRequest is the de facto status for a request the client abandoned.
const statusClientClosedRequest = 499

// multipartFileField is the form field carrying an uploaded archive.
const multipartFileField = "file"

// RestoreRequest is the validated form of the restore query parameters.
type RestoreRequest struct {
	Domains          []string `json:"domains" validate:"omitempty,max=64,dive,domainname"`
	PreRestoreBackup *bool    `json:"pre_restore_backup"`
	MinSucceeded     int      `json:"min_succeeded" validate:"gte=0"`
}

func (req *RestoreRequest) options() backup.RestoreOptions {
	return backup.RestoreOptions{
		Domains:          req.Domains,
		PreRestoreBackup: req.PreRestoreBackup,
		MinSucceeded:     req.MinSucceeded,
	}
}

// parseRestoreRequest reads and validates the restore query parameters.
func parseRestoreRequest(w http.ResponseWriter, r *http.Request) (*RestoreRequest, bool) {
	req := &RestoreRequest{
		Domains:          splitList(r.URL.Query().Get("domains")),
		PreRestoreBackup: getBoolParam(r, "pre_restore_backup"),
		MinSucceeded:     getIntParam(r, "min_succeeded", 0),
	}
	if err := validation.ValidateStruct(req); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			respondValidationError(w, err, verr.Fields)
		} else {
			respondValidationError(w, err, nil)
		}
		return nil, false
	}
	return req, true
}

// Restore applies an uploaded archive.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	req, ok := parseRestoreRequest(w, r)
	if !ok {
		return
	}

	data, err := h.readArchiveUpload(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("Archive exceeds the %d byte upload limit", maxErr.Limit), err)
			return
		}
		respondError(w, http.StatusBadRequest, CodeCorruptArchive, err.Error(), err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("bytes", len(data)).
		Strs("domains", req.Domains).
		Msg("Restore upload received")

	result, err := h.manager.RestoreArchive(r.Context(), data, req.options())
	h.respondRestore(r.Context(), w, result, err)
}

// RestoreBackup applies a stored export by ID.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if !h.checkManagerAvailable(w) {
		return
	}

	req, ok := parseRestoreRequest(w, r)
	if !ok {
		return
	}

	backupID := chi.URLParam(r, "id")
	result, err := h.manager.RestoreFromBackup(r.Context(), backupID, req.options())
	h.respondRestore(r.Context(), w, result, err)
}

// readArchiveUpload returns the archive bytes from a raw or multipart body.
func (h *Handler) readArchiveUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		reader, err := r.MultipartReader()
		if err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("multipart body has no %q field", multipartFileField)
			}
			if err != nil {
				return nil, err
			}
			if part.FormName() != multipartFileField {
				part.Close() //nolint:errcheck // skipping unrelated field
				continue
			}
			data, err := io.ReadAll(part)
			part.Close() //nolint:errcheck // fully read
			if err != nil {
				return nil, err
			}
			return checkNotEmpty(data)
		}
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return checkNotEmpty(data)
}

func checkNotEmpty(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty archive upload")
	}
	return data, nil
}

// respondRestore maps a restore outcome to a status code.
func (h *Handler) respondRestore(ctx context.Context, w http.ResponseWriter, result *backup.RestoreResult, err error) {
	if err == nil {
		respondSuccess(w, http.StatusOK, result)
		return
	}

	switch {
	case errors.Is(err, backup.ErrRestoreInProgress):
		respondError(w, http.StatusConflict, CodeInProgress, "Another backup or restore is in progress", err)
	case errors.Is(err, backup.ErrBackupNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "Backup not found", err)
	case errors.Is(err, backup.ErrBackupsDisabled):
		respondError(w, http.StatusServiceUnavailable, CodeBackupDisabled, "Stored backups are disabled", err)
	case errors.Is(err, backup.ErrCorruptArchive):
		respondErrorWithData(w, http.StatusBadRequest, CodeCorruptArchive, "Archive could not be opened", result, err)
	case errors.Is(err, backup.ErrNoUsableDomains):
		respondErrorWithData(w, http.StatusUnprocessableEntity, CodeNoUsableDomains, err.Error(), result, err)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		respondErrorWithData(w, statusClientClosedRequest, CodeRestoreCancelled, err.Error(), result, err)
	default:
		respondErrorWithData(w, http.StatusInternalServerError, CodeRestoreFailed, "Restore failed", result, err)
	}
}
