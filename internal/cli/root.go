// Package cli provides the dataengine command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataengine/internal/config"
	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/core/sources"
	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates the root command. Run without a subcommand it loads the
// catalog, dumps the first records of every dataset, lists the names and looks
// one dataset up.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		limit   int
		lookup  string
	)

	rootCmd := &cobra.Command{
		Use:   "dataengine",
		Short: "Load county and state datasets from CSV, XLSX, JSON and XML files",
		Long: `dataengine reads a fixed catalog of county and state data files in several
formats into uniform records and serves them by dataset name.

Without a subcommand it loads every dataset, dumps the first --limit records of
each, lists the dataset names and looks one dataset up by name.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := checkOverrides(cfg); err != nil {
				return err
			}

			logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			if cfg.File != "" {
				logger.Debug("config file loaded", "file", cfg.File)
			}
			logger.Debug("configuration", "config", cfg.String())
			logger.Debug("sources registered",
				"count", core.DefinitionCount(),
				"groups", len(core.Groups()),
			)

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(logging.NewContext(ctx, logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), getConfig(cmd.Context()), limit, lookup)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./dataengine.yaml)")
	pf.String("data-dir", "", "Directory holding the source files")
	pf.Bool("parallel", false, "Read source files concurrently")
	pf.Int("max-workers", 0, "Concurrent reads in parallel mode")
	pf.String("short-rows", "", "Policy for rows shorter than the header (pad|reject)")
	pf.Int("xml-attributes", 0, "Element lines per XML record")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("short-rows", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"pad", "reject"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.Flags().IntVar(&limit, "limit", 4, "Records to dump per dataset")
	rootCmd.Flags().StringVar(&lookup, "lookup", sources.CountyUnemployment, "Dataset to look up by name")

	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newNamesCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and prints a user-facing error on failure.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// printError writes the coded user message, followed by the technical error.
func printError(w io.Writer, err error) {
	if dataset.IsUserFacing(err) {
		_, _ = fmt.Fprintf(w, "Error: %s\n", dataset.FormatUserError(err))
		_, _ = fmt.Fprintf(w, "  %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return &config.Config{}
	}
	return cfg
}
