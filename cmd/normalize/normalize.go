// Package normalize provides the normalize command
package normalize

import (
	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/staging"
)

// Command creates a new command that maps a staged table onto the canonical equation schema.
func Command(settings *conf.Settings) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "normalize <staged.csv>",
		Short: "Normalize a staged table into the app-ready equation schema",
		Long: `Normalize maps a staged table onto the 18 canonical equation columns. DBH equations get
kg and cm units by default. Output goes under <datadir>/processed/ unless --out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := staging.NewPipeline(app.DataDir(settings))
			result, err := pipeline.Normalize(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			return result.WriteSummary(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path (default <datadir>/processed/<name>__normalized.csv)")

	return cmd
}
