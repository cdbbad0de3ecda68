// Package serve provides the serve command
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/greencanopy/allometree/internal/api"
	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability"
)

// Command creates the serve command running the HTTP estimation API.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the biomass estimation API over HTTP",
		Long:  "Serve exposes estimates, the native species reference and the equation index under /api/v2 until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen", settings.WebServer.Listen, "Listen address and port")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", settings.Metrics.Enabled, "Expose Prometheus metrics on /metrics")

	if err := viper.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen")); err != nil {
		return err
	}
	return viper.BindPFlag("metrics.enabled", cmd.Flags().Lookup("metrics"))
}

// Run serves the API until ctx is canceled.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("main")

	if !settings.WebServer.Enabled {
		return errors.Newf("web server is disabled in configuration").
			Component("cli").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var m *observability.Metrics
	if settings.Metrics.Enabled {
		var err error
		if m, err = observability.NewMetrics(); err != nil {
			return err
		}
	}

	engine, closeEngine, err := app.NewEngine(ctx, settings, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.Warn("failed to close equation source", logger.Error(err))
		}
	}()

	opts := []api.ServerOption{api.WithMetrics(m)}
	catalog, err := app.LoadCatalog(ctx, settings)
	switch {
	case err == nil:
		opts = append(opts, api.WithCatalog(catalog))
	case errors.IsNotFound(err):
		log.Warn("native species reference not found, species routes disabled",
			logger.String("path", app.NativeSpeciesPath(settings)))
	default:
		return err
	}

	server, err := api.New(api.ConfigFromSettings(settings), engine, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("shutdown signal received, stopping server")
		}
		return nil
	})

	return g.Wait()
}
