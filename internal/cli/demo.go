package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/dataengine/internal/config"
)

// runDemo loads the catalog, dumps limit records per dataset, lists the names
// and looks up one dataset.
func runDemo(ctx context.Context, out io.Writer, cfg *config.Config, limit int, lookup string) error {
	registry, _, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}

	if err := registry.DumpDatasets(out, limit); err != nil {
		return err
	}

	names, err := sortedNames(registry)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "Listing Data Set by Name:\n\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintf(w, "\n\n")
	if err := w.Flush(); err != nil {
		return err
	}

	ds, err := registry.DatasetByName(lookup)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Data Set %s: %d records, %d fields, read from %s\n",
		ds.Name(), ds.Len(), len(ds.Header()), ds.Source())
	return err
}
