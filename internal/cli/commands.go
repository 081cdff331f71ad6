package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
)

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every dataset and print the import report",
		Long: `Load reads the whole catalog and prints one line per dataset with its
format, record count and read time. It exits non-zero if any dataset fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, report, err := loadRegistry(cmd.Context(), getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

// renderReport prints an import report as a table.
func renderReport(out io.Writer, report *core.ImportReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Load %s", report.LoadID)
	t.AppendHeader(table.Row{"Dataset", "Format", "Records", "Duration", "Path"})
	for _, f := range report.Files {
		t.AppendRow(table.Row{f.Name, f.Format, f.Records, f.Duration.Round(time.Microsecond), f.Path})
	}
	t.AppendFooter(table.Row{"Total", "", report.TotalRecords(), report.Duration.Round(time.Microsecond), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func newDumpCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the first records of every dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, _, err := loadRegistry(cmd.Context(), getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			return registry.DumpDatasets(cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 4, "Records to print per dataset")
	return cmd
}

func newNamesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the dataset names in ascending order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, _, err := loadRegistry(cmd.Context(), getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			names, err := sortedNames(registry)
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	var (
		limit, offset int
		fields        []string
	)

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show the records of one dataset as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, _, err := loadRegistry(cmd.Context(), getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			ds, err := registry.DatasetByName(args[0])
			if err != nil {
				return err
			}
			return renderDataset(cmd.OutOrStdout(), ds, fields, offset, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "Fields to show, in order (default: all)")
	return cmd
}

// renderDataset prints a page of records with the fields as column titles.
// An empty fields list selects every field in header order.
func renderDataset(out io.Writer, ds *dataset.Dataset, fields []string, offset, limit int) error {
	if len(fields) == 0 {
		fields = ds.Header()
	}
	for _, f := range fields {
		if !ds.HasField(f) {
			return errors.Newf("%s has no field %q (fields: %s)", ds.Name(), f, strings.Join(ds.Header(), ", "))
		}
	}
	records := ds.Slice(offset, limit)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s", ds.Name())

	headerRow := make(table.Row, len(fields))
	for i, name := range fields {
		headerRow[i] = name
	}
	t.AppendHeader(headerRow)

	for _, rec := range records {
		row := make(table.Row, len(fields))
		for i, name := range fields {
			row[i], _ = rec.Get(name)
		}
		t.AppendRow(row)
	}
	t.SetCaption("%d of %d records from %s", len(records), ds.Len(), ds.Source())
	t.Render()
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dataengine v%s (%s)\n", Version, GitCommit)
		},
	}
}
