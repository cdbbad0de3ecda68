// Package importer provides the import command
package importer

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/logger"
)

// Command creates the import command, which replaces the datastore equation
// table with the rows of a canonical CSV.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [canonical.csv]",
		Short: "Persist a canonical equation table into the configured datastore",
		Long: `Import replaces every stored equation with the rows of a canonical equation CSV. Without an
argument the configured data.equations file is imported. Set allometry.source to database to
estimate from the stored table.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.EquationsPath(settings)
			if len(args) == 1 {
				path = args[0]
			}
			return runImport(cmd, settings, path)
		},
	}

	return cmd
}

func runImport(cmd *cobra.Command, settings *conf.Settings, path string) error {
	ctx := cmd.Context()
	start := time.Now()

	records, err := allometry.LoadRecordsFile(ctx, path)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Global().Module("cli").Warn("failed to close datastore", logger.Error(err))
		}
	}()

	saved, err := store.SaveRecords(ctx, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d equation records from %s into %s datastore in %s\n",
		saved, path, store.Dialect(), time.Since(start).Round(time.Millisecond))
	return nil
}
