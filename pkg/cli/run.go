package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitewatch/pkg/archive"
	"sitewatch/pkg/config"
	"sitewatch/pkg/detect"
	"sitewatch/pkg/fetcher"
	"sitewatch/pkg/httpclient"
	"sitewatch/pkg/report"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Snapshot every configured website and log newly added pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, opts)
		},
	}
}

func runDetect(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientType, err := httpclient.ParseClientType(cfg.HTTP.Client)
	if err != nil {
		return err
	}
	client := httpclient.NewClient(clientType, cfg.HTTP.Timeout)

	var archiver detect.Archiver
	if cfg.Archive.Enabled() {
		s3Archiver, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Bucket:       cfg.Archive.S3Bucket,
			Prefix:       cfg.Archive.Prefix,
			Region:       cfg.Archive.Region,
			UsePathStyle: cfg.Archive.UsePathStyle,
		}, log)
		if err != nil {
			return err
		}
		archiver = s3Archiver
	}

	svc := detect.NewService(detect.Config{
		Sources:    cfg.Sources(),
		SitemapDir: cfg.Storage.SitemapDir,
		RSSDir:     cfg.Storage.RSSDir,
		LogDir:     cfg.LogDir(),
		Workers:    cfg.Run.Workers,
		Downloader: fetcher.New(client),
		Archiver:   archiver,
		Logger:     log,
	})

	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report.NewTableRenderer(out).RenderSources(rep.Results)
	if rep.Summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", rep.Summary)
	}
	fmt.Fprintf(out, "Manifest: %s\n", rep.Manifest)
	return nil
}
