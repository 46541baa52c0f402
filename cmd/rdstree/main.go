// Package main provides the rdstree binary: an HTTP service and command line
// tools for IEC 81346 reference designations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnwards/rdstree/internal/config"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	dbPath     string
}

// load resolves the configuration from file, environment and flags, and
// installs the default logger.
func (o *globalOptions) load() (config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, nil
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "rdstree",
		Short: "Reference designation parser and tree builder",
		Long: `rdstree parses IEC 81346 reference designations, classifies them by
aspect and rebuilds the function, product and location trees implied by a
flat list of designated objects, reporting duplicate codes and orphans.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path")

	cmd.AddCommand(
		serveCmd(opts),
		parseCmd(),
		treeCmd(opts),
		importCmd(opts),
		browseCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "rdstree version %s\n", Version)
			},
		},
	)

	return cmd
}
