// Package cmd assembles the allometree command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greencanopy/allometree/cmd/equations"
	"github.com/greencanopy/allometree/cmd/estimate"
	"github.com/greencanopy/allometree/cmd/importer"
	"github.com/greencanopy/allometree/cmd/normalize"
	"github.com/greencanopy/allometree/cmd/serve"
	"github.com/greencanopy/allometree/cmd/species"
	"github.com/greencanopy/allometree/cmd/stage"
	"github.com/greencanopy/allometree/cmd/version"
	"github.com/greencanopy/allometree/internal/buildinfo"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "allometree",
		Short:         "Tree above-ground biomass from published allometric equations",
		Long:          "allometree imports GlobAllomeTree equation tables and estimates above-ground biomass per tree from diameter at breast height.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(err)
	}

	versionCmd := version.Command(info)
	rootCmd.AddCommand(
		stage.Command(settings),
		normalize.Command(settings),
		estimate.Command(settings),
		species.Command(settings),
		importer.Command(settings),
		equations.Command(settings),
		serve.Command(settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initialize(settings, info)
	}

	return rootCmd
}

// initialize runs before every subcommand once flags have been applied to settings.
func initialize(settings *conf.Settings, info *buildinfo.Context) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings, info); err != nil {
		logger.Global().Module("main").Warn("telemetry disabled", logger.Error(err))
	}
	return nil
}

// Shutdown flushes telemetry and log outputs before the process exits.
func Shutdown() {
	telemetry.Flush(2 * time.Second)
	if err := logger.Global().Close(); err != nil {
		fmt.Printf("error closing logger: %v\n", err)
	}
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.Data.Dir, "datadir", settings.Data.Dir, "Root directory for staging/ and processed/ outputs")
	flags.StringVar(&settings.Data.Equations, "equations", settings.Data.Equations, "Canonical equation table CSV")
	flags.StringVar(&settings.Data.NativeSpecies, "native-species", settings.Data.NativeSpecies, "Native species reference CSV")
	flags.StringVar(&settings.Allometry.Source, "source", settings.Allometry.Source, "Equation source: csv or database")

	bindings := map[string]string{
		"debug":          "debug",
		"datadir":        "data.dir",
		"equations":      "data.equations",
		"native-species": "data.nativespecies",
		"source":         "allometry.source",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
