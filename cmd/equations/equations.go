// Package equations provides the equations command
package equations

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
)

// Command creates the equations command, which prints the indexed equations and
// how the index was built.
func Command(settings *conf.Settings) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "equations",
		Short: "List indexed equations and index build statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeEngine, err := app.NewEngine(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			defer func() { _ = closeEngine() }()

			return printIndex(cmd, engine.SourceName(), engine.Index(), region)
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Only list equations for this region (exact match)")

	return cmd
}

func printIndex(cmd *cobra.Command, source string, idx *allometry.Index, region string) error {
	out := cmd.OutOrStdout()

	table := tablewriter.NewWriter(out)
	table.Header("Species", "Region", "Intercept", "Slope", "Wood density")
	listed := 0
	for _, key := range idx.Keys() {
		if region != "" && key.Region != region {
			continue
		}
		coeffs, _ := idx.Lookup(key.Species, key.Region)
		row := []string{
			key.Species,
			key.Region,
			strconv.FormatFloat(coeffs.Intercept, 'g', -1, 64),
			strconv.FormatFloat(coeffs.Slope, 'g', -1, 64),
			strconv.FormatFloat(coeffs.WoodDensity, 'f', 2, 64),
		}
		if err := table.Append(row); err != nil {
			return err
		}
		listed++
	}
	if err := table.Render(); err != nil {
		return err
	}

	stats := idx.Stats()
	fmt.Fprintf(out, "\nSource:      %s\n", source)
	fmt.Fprintf(out, "Listed:      %d of %d equations\n", listed, idx.Len())
	fmt.Fprintf(out, "Records:     %d seen, %d indexed, %d overwritten\n", stats.Seen, stats.Indexed, stats.Overwritten)
	for _, reason := range allometry.SkipReasons {
		if n := stats.Skipped[reason]; n > 0 {
			fmt.Fprintf(out, "Skipped:     %d %s\n", n, reason)
		}
	}
	return nil
}
