// Package species provides the species command
package species

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/greencanopy/allometree/internal/app"
	"github.com/greencanopy/allometree/internal/conf"
	nativespecies "github.com/greencanopy/allometree/internal/species"
)

// Command creates the species command listing the native species reference.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "species [ecoregion]",
		Short: "List ecoregions or the native species of one ecoregion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.LoadCatalog(cmd.Context(), settings)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return printEcoregions(cmd, catalog)
			}
			return printSpecies(cmd, catalog, args[0])
		},
	}

	return cmd
}

func printEcoregions(cmd *cobra.Command, catalog *nativespecies.Catalog) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Ecoregion", "Native species")
	for _, region := range catalog.Ecoregions() {
		names, _ := catalog.SpeciesFor(region)
		if err := table.Append([]string{nativespecies.Title(region), strconv.Itoa(len(names))}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printSpecies(cmd *cobra.Command, catalog *nativespecies.Catalog, ecoregion string) error {
	names, err := catalog.SpeciesFor(ecoregion)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Native species for %s:\n", nativespecies.Title(ecoregion))
	for _, name := range names {
		fmt.Fprintf(out, " - %s\n", name)
	}
	return nil
}
