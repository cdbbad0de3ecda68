// Package estimate provides the estimate command
package estimate

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/species"
)

const (
	// DefaultDBH is the diameter at breast height used when --dbh is not given.
	DefaultDBH = 30.0
	// MinDBH is the smallest diameter accepted on the command line.
	MinDBH = 1.0
)

// Options holds the estimate command flags.
type Options struct {
	Ecoregion string
	Species   string
	DBH       float64
}

// Command creates the estimate command. It picks a native species for the
// ecoregion and prints the above-ground biomass of one tree.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate above-ground biomass of a single tree",
		Long: fmt.Sprintf(`Estimate looks up the allometric equation for a native species of the ecoregion and
prints the above-ground biomass in kg per tree. Suggested ecoregions: %s.`,
			strings.Join(species.SuggestedEcoregions, ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Ecoregion, "ecoregion", species.DefaultEcoregion, "Ecoregion of the stand")
	cmd.Flags().StringVar(&opts.Species, "species", "", "Species name (default: first native species of the ecoregion)")
	cmd.Flags().Float64Var(&opts.DBH, "dbh", DefaultDBH, "Diameter at breast height in cm (minimum 1.0)")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, opts *Options) error {
	if math.IsNaN(opts.DBH) || opts.DBH < MinDBH {
		return errors.Newf("dbh must be at least %.1f cm, got %v", MinDBH, opts.DBH).
			Component("cli").
			Category(errors.CategoryValidation).
			Context("dbh", opts.DBH).
			Build()
	}

	ctx := cmd.Context()
	catalog, err := app.LoadCatalog(ctx, settings)
	if err != nil {
		return err
	}

	natives, err := catalog.SpeciesFor(opts.Ecoregion)
	if err != nil {
		return err
	}

	speciesName := strings.TrimSpace(opts.Species)
	if speciesName == "" {
		speciesName = natives[0]
	}
	region := strings.ToLower(strings.TrimSpace(opts.Ecoregion))
	if !slices.Contains(natives, speciesName) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not listed as native to %s\n", speciesName, species.Title(region))
	}

	engine, closeEngine, err := app.NewEngine(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine() }()

	agb, _, found := engine.Estimate(opts.DBH, speciesName, region)
	if !found {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no %s equation for %s in %s\n", allometry.FamilyLogLinearDBH, speciesName, region)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ecoregion: %s\n", species.Title(region))
	fmt.Fprintf(out, "Species:   %s\n", speciesName)
	fmt.Fprintf(out, "DBH (cm):  %.1f\n", opts.DBH)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "### Result")
	fmt.Fprintf(out, "AGB (kg/tree): %.4f\n", agb)
	return nil
}
