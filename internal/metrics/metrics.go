// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Restore Metrics
	RestoreDomainsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockdesk_restore_domains_total",
			Help: "Per-domain restore outcomes",
		},
		[]string{"domain", "status"}, // committed, failed, not_found, cancelled
	)

	RestoreRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockdesk_restore_rows_total",
			Help: "Rows replayed into destination databases",
		},
		[]string{"domain"},
	)

	RestoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockdesk_restore_duration_seconds",
			Help:    "Duration of restore operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	RestoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockdesk_restore_operations_total",
			Help: "Restore operations by result",
		},
		[]string{"result"}, // ok, no_usable_domains, corrupt, cancelled
	)

	// Export Metrics
	ExportTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockdesk_export_total",
			Help: "Archive exports by status",
		},
		[]string{"status", "trigger"},
	)

	ExportBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockdesk_export_last_bytes",
			Help: "Size of the most recent completed export",
		},
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockdesk_export_duration_seconds",
			Help:    "Duration of archive exports in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	StoredBackups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockdesk_stored_backups",
			Help: "Number of exports kept in the backup directory",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockdesk_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockdesk_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRestoreDomain records one domain outcome of a restore.
func RecordRestoreDomain(domain, status string, rows int64) {
	RestoreDomainsTotal.WithLabelValues(domain, status).Inc()
	if rows > 0 {
		RestoreRowsTotal.WithLabelValues(domain).Add(float64(rows))
	}
}

// RecordRestore records a finished restore operation.
func RecordRestore(result string, duration time.Duration) {
	RestoreOperationsTotal.WithLabelValues(result).Inc()
	RestoreDuration.Observe(duration.Seconds())
}

// RecordExport records a finished export.
func RecordExport(status, trigger string, size int64, duration time.Duration) {
	ExportTotal.WithLabelValues(status, trigger).Inc()
	ExportDuration.Observe(duration.Seconds())
	if status == "completed" {
		ExportBytes.Set(float64(size))
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
