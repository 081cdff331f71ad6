package cli

import (
	"context"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataengine/internal/config"
	"github.com/JonMunkholm/dataengine/internal/export"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy every dataset into PostgreSQL",
		Long: `Export loads the catalog and replaces each dataset's rows in the export table
with one jsonb record per row, all in a single transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), getConfig(cmd.Context()))
		},
	}
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().String("table", "", "Target table")
	return cmd
}

func runExport(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	registry, _, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	datasets, err := registry.AllDatasets()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Export.Timeout)
	defer cancel()

	pool, err := export.Connect(ctx, cfg.Export.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	result, err := export.New(cfg.Export.Table).Run(ctx, pool, datasets)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("export complete", "table", result.Table, "duration", result.Duration)

	renderExport(out, result)
	return nil
}

func renderExport(out io.Writer, result *export.Result) {
	names := make([]string, 0, len(result.Rows))
	for name := range result.Rows {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int64
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Export to %s", result.Table)
	t.AppendHeader(table.Row{"Dataset", "Rows"})
	for _, name := range names {
		t.AppendRow(table.Row{name, result.Rows[name]})
		total += result.Rows[name]
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}
