// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

/*
Stockdesk serves and operates the backup and restore subsystem of the
personal stock tracker.

Usage:

	stockdesk serve
	stockdesk export -o stockdesk.zip [--domains holdings,orders]
	stockdesk restore -i stockdesk.zip [--domains holdings] [--min-succeeded 2] [--no-pre-restore]

Configuration is read from config.yaml (or CONFIG_PATH) and environment
variables such as DATA_DIR, BACKUP_DIR and HTTP_PORT.
*/
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tomtom215/stockdesk/internal/backup"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	backup.AppVersion = Version
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newCLI builds the command tree.
func newCLI() *cli.App {
	return &cli.App{
		Name:    "stockdesk",
		Usage:   "Personal stock tracker backup and restore service",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Commands: []*cli.Command{
			serveCommand(),
			exportCommand(),
			restoreCommand(),
		},
	}
}
