package cli

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/dataengine/internal/config"
	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/ingest"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// checkOverrides rejects file overrides for datasets the catalog does not know.
func checkOverrides(cfg *config.Config) error {
	var unknown []string
	for name := range cfg.Data.Files {
		if _, ok := core.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.Wrapf(dataset.ErrUnknownDatasetName, "data.files overrides %q", unknown)
}

// newRegistry builds an unloaded registry for the configured catalog.
func newRegistry(cfg *config.Config, observer core.Observer) (*core.Registry, error) {
	policy, err := dataset.ParseShortRowPolicy(cfg.Load.ShortRows)
	if err != nil {
		return nil, err
	}
	return core.NewRegistry(core.ResolveSources(cfg.Data.Dir, cfg.Data.Files), core.Options{
		Normalizer: dataset.Normalizer{ShortRows: policy},
		Readers: ingest.Options{
			XMLFooter:     cfg.Data.XMLFooter,
			XMLAttributes: cfg.Data.XMLAttributes,
			XMLSkipLines:  cfg.Data.XMLSkipLines,
		},
		Parallel:   cfg.Load.Parallel,
		MaxWorkers: cfg.Load.MaxWorkers,
		Observer:   observer,
	}), nil
}

// loadRegistry builds a registry and loads it within load.timeout.
func loadRegistry(ctx context.Context, cfg *config.Config) (*core.Registry, *core.ImportReport, error) {
	registry, err := newRegistry(cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Load.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Load.Timeout)
		defer cancel()
	}

	report, err := registry.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Info("catalog loaded",
		"load_id", report.LoadID,
		"datasets", len(report.Files),
		"records", report.TotalRecords(),
		"duration", report.Duration,
	)
	return registry, report, nil
}

// sortedNames returns the dataset names in ascending order.
func sortedNames(registry *core.Registry) ([]string, error) {
	names, err := registry.DatasetNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
