// Package cli implements the sitewatch command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sitewatch/pkg/config"
	"sitewatch/pkg/logger"
)

// Version is set at build time with -ldflags "-X sitewatch/pkg/cli.Version=..."
var Version = "dev"

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand builds the sitewatch command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "sitewatch",
		Short:         "Detect pages newly added to websites",
		Long:          `sitewatch snapshots sitemaps and RSS feeds, logs the pages added since the previous snapshot and files an issue per log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newFileIssuesCommand(opts))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitewatch version %s\n", Version)
		},
	})

	return rootCmd
}

// NewFileIssuesCommand builds the standalone issue filer command
func NewFileIssuesCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := newFileIssuesCommand(opts)
	cmd.Use = "fileissues"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "config file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	return cmd
}

// Execute runs the root command
func Execute() error {
	return execute(NewRootCommand())
}

// ExecuteFileIssues runs the standalone issue filer
func ExecuteFileIssues() error {
	return execute(NewFileIssuesCommand())
}

func execute(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the process logger, forcing debug level when --debug is set
func newLogger(cfg *config.Config, opts *rootOptions) (logger.Interface, error) {
	logCfg := cfg.Logger
	if opts.debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
