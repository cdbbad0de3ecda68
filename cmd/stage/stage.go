// Package stage provides the stage command
package stage

import (
	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/staging"
)

// Command creates a new command for staging a raw GlobAllomeTree export.
func Command(settings *conf.Settings) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "stage <input.csv|input.tsv>",
		Short: "Stage a raw GlobAllomeTree export as comma-separated CSV",
		Long: `Stage reads a raw GlobAllomeTree export, choosing tab delimiters for .tsv and .tab files,
and writes it unchanged as comma-separated CSV under <datadir>/staging/ unless --out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := staging.NewPipeline(app.DataDir(settings))
			result, err := pipeline.Stage(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			return result.WriteSummary(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path (default <datadir>/staging/<name>__staged.csv)")

	return cmd
}
