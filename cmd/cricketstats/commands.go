package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cricketstats/internal/config"
	"cricketstats/internal/datasource"
	"cricketstats/internal/datasource/archive"
	"cricketstats/internal/datasource/file"
	"cricketstats/internal/datasource/httpds"
	"cricketstats/internal/ingest"
	"cricketstats/internal/report"
	"cricketstats/internal/storage/sqlite"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the match archive and extract it into a new batch directory",
		Args:  cobra.NoArgs,
		RunE: a.withLoaded(func(cmd *cobra.Command, _ []string) error {
			_, err := a.fetch(cmd.Context())
			return err
		}),
	}
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Create the store if needed and ingest the latest batch",
		Args:  cobra.NoArgs,
		RunE: a.withLoaded(func(cmd *cobra.Command, _ []string) error {
			return a.ingest(cmd.Context())
		}),
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch, then ingest; a failed fetch falls back to the newest existing batch",
		Args:  cobra.NoArgs,
		RunE: a.withLoaded(func(cmd *cobra.Command, _ []string) error {
			if _, err := a.fetch(cmd.Context()); err != nil {
				fmt.Fprintln(a.stderr, color.YellowString("fetch failed, ingesting existing data: %v", err))
			}
			return a.ingest(cmd.Context())
		}),
	}
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "report <name>",
		Short:     "Print one statistics report",
		Long:      "Print one statistics report. Available reports: " + fmt.Sprint(report.Names()),
		Args:      cobra.ExactArgs(1),
		ValidArgs: report.Names(),
		RunE: a.withLoaded(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := sqlite.EnsureSchema(ctx, a.storeConfig(), a.logger); err != nil {
				return err
			}
			repo, closeFn, err := sqlite.NewRepository(ctx, a.storeConfig())
			if err != nil {
				return err
			}
			defer closeFn()

			tbl, err := report.New(repo.DB()).Run(ctx, args[0])
			if err != nil {
				return err
			}
			return report.Render(a.stdout, tbl)
		}),
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the effective configuration for errors and warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.verbose {
				a.v.Set("log.level", "debug")
			}
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			issues := config.Validate(cfg)
			for _, iss := range issues {
				paint := color.YellowString
				if iss.Severity == config.SeverityError {
					paint = color.RedString
				}
				fmt.Fprintln(a.stdout, paint("%s: %s: %s", iss.Severity, iss.Path, iss.Message))
			}
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			fmt.Fprintln(a.stdout, color.GreenString("configuration is valid"))
			return nil
		},
	})
	return cmd
}

// source picks an HTTP or local-file source for the configured download URL.
func (a *app) source() datasource.Source {
	u, err := url.Parse(a.cfg.DownloadURL)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		client := httpds.NewClient(httpds.Config{
			Timeout:            a.cfg.HTTP.Timeout,
			MaxRetries:         a.cfg.HTTP.MaxRetries,
			InitialBackoff:     a.cfg.HTTP.InitialBackoff,
			MaxBackoff:         a.cfg.HTTP.MaxBackoff,
			InsecureSkipVerify: a.cfg.HTTP.InsecureSkipVerify,
			Logger:             a.logger,
		})
		return httpds.NewSource(client, a.cfg.DownloadURL)
	}
	return file.NewLocal(a.cfg.DownloadURL)
}

func (a *app) fetch(ctx context.Context) (string, error) {
	if a.cfg.DownloadURL == "" {
		return "", errors.New("fetch: download_url is empty")
	}
	a.logger.Info("downloading archive", zap.String("url", a.cfg.DownloadURL))
	dir, err := archive.NewExtractor(a.cfg.DataDir, a.logger).Fetch(ctx, a.source())
	if err != nil {
		return "", errors.Wrap(err, "fetch")
	}
	fmt.Fprintln(a.stdout, color.GreenString("extracted to %s", dir))
	return dir, nil
}

func (a *app) ingest(ctx context.Context) error {
	policy, err := ingest.ParseDeliveryPolicy(a.cfg.Ingest.DeliveryPolicy)
	if err != nil {
		return err
	}
	flush := setupMetrics(a.cfg.Metrics, a.logger)
	defer flush()

	if _, err := sqlite.EnsureSchema(ctx, a.storeConfig(), a.logger); err != nil {
		return err
	}

	coord := ingest.New(ingest.RepositoryOpener(a.storeConfig()), a.logger,
		ingest.WithDeliveryPolicy(policy),
		ingest.WithJob(a.cfg.Metrics.Job),
	)
	sum, err := coord.IngestAll(ctx, a.cfg.DataDir)
	if err != nil {
		return err
	}
	printSummary(a, sum)
	return nil
}

func printSummary(a *app, s ingest.Summary) {
	status := color.GreenString("ok")
	if s.Failed > 0 {
		status = color.YellowString("%d failed", s.Failed)
	}
	fmt.Fprintf(a.stdout, "batch %s: %d documents (%s) in %s\n",
		s.Dir, s.Documents, status, s.Duration.Truncate(time.Millisecond))
	fmt.Fprintf(a.stdout, "  matches:    %d inserted, %d skipped, %d rejected\n",
		s.MatchesInserted, s.MatchesSkipped, s.MatchesFailed)
	fmt.Fprintf(a.stdout, "  players:    %d inserted\n", s.PlayersInserted)
	fmt.Fprintf(a.stdout, "  deliveries: %d inserted\n", s.DeliveriesInserted)
}
