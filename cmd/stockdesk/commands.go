// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/tomtom215/stockdesk/internal/api"
	"github.com/tomtom215/stockdesk/internal/backup"
	"github.com/tomtom215/stockdesk/internal/logging"
	"github.com/tomtom215/stockdesk/internal/supervisor"
	"github.com/tomtom215/stockdesk/internal/supervisor/services"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and the export scheduler",
		Action: runServe,
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every domain database into an archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Archive file to write",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "domains",
				Usage: "Export only these domains (comma separated)",
			},
		},
		Action: runExport,
	}
}

func restoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Merge an archive into the domain databases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Archive file to read",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "domains",
				Usage: "Restore only these domains (comma separated)",
			},
			&cli.IntFlag{
				Name:  "min-succeeded",
				Usage: "Fail unless at least this many domains are restored (0 uses the configured value)",
			},
			&cli.BoolFlag{
				Name:  "no-pre-restore",
				Usage: "Skip the safety export of the current state",
			},
		},
		Action: runRestore,
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runServe(c *cli.Context) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing domain stores")
		}
	}()

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	srv := a.cfg.Server
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins:   srv.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:           86400,
		RateLimitRequests:    srv.RateLimitRequests,
		RateLimitWindow:      srv.RateLimitWindow,
		RateLimitDisabled:    srv.RateLimitRequests == 0,
		RestoreLimitRequests: 5,
	})
	handler := api.NewHandler(a.manager, a.cfg.Backup.MaxUploadBytes, Version)

	server := &http.Server{
		Handler:           api.NewRouter(handler, middleware).Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       srv.Timeout,
		IdleTimeout:       2 * time.Minute,
		// No WriteTimeout: restoring a large archive can outlast any fixed deadline.
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  srv.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewBackupSchedulerService(a.manager))
	tree.AddAPIService(services.NewHTTPServerService(server, srv.Addr(), 10*time.Second))

	logging.Info().Str("addr", srv.Addr()).Str("version", Version).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Stockdesk stopped")
	return nil
}

func runExport(c *cli.Context) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // process exit

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	out := c.String("output")
	files, err := exportToFile(ctx, a, out, c.StringSlice("domains"))
	if err != nil {
		return err
	}

	printExport(c.App.Writer, out, files)
	return nil
}

// exportToFile writes the archive next to out and renames it into place,
// so an interrupted export never leaves a truncated file at out.
func exportToFile(ctx context.Context, a *app, out string, names []string) (files []backup.DomainFile, err error) {
	partial := out + ".partial"
	f, err := os.Create(partial) //nolint:gosec // path is the operator's own argument
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", partial, err)
	}
	defer func() {
		if err != nil {
			os.Remove(partial) //nolint:errcheck // best-effort cleanup
		}
	}()

	exporter := backup.NewExporter(a.registry, a.manager.Config().Archive, a.manager.Config().TempDir)
	files, err = exporter.Export(ctx, f, names)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", partial, closeErr)
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(partial, out); err != nil {
		return nil, fmt.Errorf("failed to move export into place: %w", err)
	}
	return files, nil
}

func printExport(w io.Writer, out string, files []backup.DomainFile) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tENTRY\tROWS\tSIZE")
	var total uint64
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Domain, f.Entry, f.Rows, humanize.Bytes(uint64(f.Size)))
		total += uint64(f.Size)
	}
	tw.Flush() //nolint:errcheck // terminal output
	fmt.Fprintf(w, "\nExported %d domains (%s) to %s\n", len(files), humanize.Bytes(total), out)
}

func runRestore(c *cli.Context) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // process exit

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	in := c.String("input")
	data, err := os.ReadFile(in) //nolint:gosec // path is the operator's own argument
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	opts := backup.RestoreOptions{
		Domains:      c.StringSlice("domains"),
		MinSucceeded: c.Int("min-succeeded"),
	}
	if c.Bool("no-pre-restore") {
		skip := false
		opts.PreRestoreBackup = &skip
	}

	result, err := a.manager.RestoreArchive(ctx, data, opts)
	if result != nil {
		printRestore(c.App.Writer, result)
	}
	return err
}

func printRestore(w io.Writer, result *backup.RestoreResult) {
	if result.PreRestoreBackupID != "" {
		fmt.Fprintf(w, "Pre-restore export: %s\n\n", result.PreRestoreBackupID)
	}
	if result.Report != nil {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOMAIN\tSTATUS\tENTRY\tROWS\tERROR")
		for _, res := range result.Report.Results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", res.Domain, res.Status, res.Entry, res.Rows, res.Error)
		}
		tw.Flush() //nolint:errcheck // terminal output
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, result.Summary)
}
