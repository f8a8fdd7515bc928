package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitewatch/pkg/config"
	"sitewatch/pkg/content"
	"sitewatch/pkg/httpclient"
	"sitewatch/pkg/issues"
	"sitewatch/pkg/ledger"
	"sitewatch/pkg/report"
)

func newFileIssuesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "file-issues",
		Short: "File a GitHub issue for each delta log of the latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFileIssues(cmd, opts)
		},
	}
}

func runFileIssues(cmd *cobra.Command, opts *rootOptions) error {
	env, err := issues.EnvFromOS()
	if errors.Is(err, issues.ErrMissingEnv) {
		// a missing credential ends the pass without failing the job
		name := issues.TokenEnv
		if env.Token != "" {
			name = issues.RepositoryEnv
		}
		fmt.Fprintf(cmd.OutOrStdout(), "错误: 未设置%s环境变量\n", name)
		return nil
	}

	cfg, err := config.LoadOptional(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateFiler(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := issues.NewGitHubTracker(env.Token, env.Repository)
	if err != nil {
		return err
	}

	led, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	defer func() {
		if err := led.Close(context.Background()); err != nil {
			log.Warn("Failed to close ledger", "error", err)
		}
	}()

	var titles issues.TitleResolver
	if cfg.Issues.ResolveTitles {
		clientType, err := httpclient.ParseClientType(cfg.HTTP.Client)
		if err != nil {
			return err
		}
		titles = content.NewTitleResolver(httpclient.NewClient(clientType, cfg.HTTP.Timeout))
	}

	filer, err := issues.NewFiler(issues.Config{
		LogDir:    cfg.LogDir(),
		Label:     cfg.Issues.Label,
		Selection: cfg.Issues.Selection,
		Window:    cfg.Issues.Window,
		Tracker:   tracker,
		Ledger:    led,
		Titles:    titles,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	rows, err := filer.FileAll(ctx)
	if len(rows) > 0 {
		report.NewTableRenderer(cmd.OutOrStdout()).RenderIssues(rows)
	}
	return err
}
