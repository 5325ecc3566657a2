// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/stockdesk/internal/validation"
)

// Validate checks struct tag constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateBackup() error {
	b := c.Backup
	if strings.Contains(b.ContainerDir, "..") || filepath.IsAbs(b.ContainerDir) {
		return fmt.Errorf("backup.container_dir must be a relative archive path, got: %q", b.ContainerDir)
	}
	if b.Retention.MaxCount > 0 && b.Retention.MaxCount < b.Retention.MinCount {
		return fmt.Errorf("backup.retention.max_count (%d) must be >= backup.retention.min_count (%d)",
			b.Retention.MaxCount, b.Retention.MinCount)
	}
	if b.Schedule.Enabled && b.Schedule.Interval < time.Hour {
		return fmt.Errorf("backup.schedule.interval must be at least 1 hour, got: %s", b.Schedule.Interval)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
