package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/dataengine/internal/config"
	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/logging"
	"github.com/JonMunkholm/dataengine/internal/metrics"
	"github.com/JonMunkholm/dataengine/internal/web"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the datasets over HTTP",
		Long: `Serve starts the HTTP browser and loads the catalog in the background.
/healthz answers 503 until the load succeeds. With --watch, changes to a source
file trigger a reload; a failed reload keeps the previous datasets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), getConfig(cmd.Context()))
		},
	}
	cmd.Flags().String("host", "", "Interface to bind to")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("watch", false, "Reload datasets when a source file changes")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.FromContext(ctx)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewObserver(promReg)
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}

	registry, err := newRegistry(cfg, observer)
	if err != nil {
		return err
	}

	server := web.NewServer(registry, web.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Gatherer:       promReg,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := loadInBackground(gctx, registry, cfg); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		if !cfg.Server.Watch {
			return nil
		}
		return web.NewWatcher(registry, registry.Sources(), cfg.Server.WatchDebounce).Run(gctx)
	})

	return g.Wait()
}

func loadInBackground(ctx context.Context, registry *core.Registry, cfg *config.Config) error {
	if cfg.Load.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Load.Timeout)
		defer cancel()
	}
	report, err := registry.LoadAll(ctx)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("catalog loaded, serving datasets",
		"load_id", report.LoadID,
		"records", report.TotalRecords(),
		"addr", cfg.Server.Addr(),
	)
	return nil
}
