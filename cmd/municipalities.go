package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/w-datascientist/arbovirose/internal/catalog"
	"github.com/w-datascientist/arbovirose/internal/model"
)

var municipalitiesCmd = &cobra.Command{
	Use:     "municipalities",
	Aliases: []string{"munis"},
	Short:   "Browse the municipality catalog",
}

// -- municipalities list --

var municipalitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List municipality names",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := initCatalog()
		if err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("search")
		names := cat.Names()
		if query != "" {
			names = cat.Search(query)
		}

		return writeOutput(os.Stdout, outputFormat, names, func(w io.Writer) {
			formatNames(w, names)
		})
	},
}

// -- municipalities show --

var municipalitiesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one municipality",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := initCatalog()
		if err != nil {
			return err
		}

		m, err := cat.Lookup(args[0])
		if err != nil {
			return err
		}

		if geo, _ := cmd.Flags().GetBool("geojson"); geo {
			return catalog.WriteGeoJSON(os.Stdout, []*model.Municipality{m})
		}

		return writeOutput(os.Stdout, outputFormat, municipalityView(m), func(w io.Writer) {
			formatMunicipalityTable(w, m)
		})
	},
}

// municipalityDetail is the serialized form of a municipality with its
// derived geometry figures.
type municipalityDetail struct {
	model.Municipality `yaml:",inline"`

	BBox *model.BBox `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	Area float64     `json:"area" yaml:"area"`
}

func municipalityView(m *model.Municipality) municipalityDetail {
	d := municipalityDetail{Municipality: *m, Area: m.Area()}
	if b, ok := m.BBox(); ok {
		d.BBox = &b
	}
	return d
}

func init() {
	municipalitiesListCmd.Flags().String("search", "", "accent- and case-insensitive substring filter")
	municipalitiesShowCmd.Flags().Bool("geojson", false, "print the boundary as a GeoJSON FeatureCollection")
	municipalitiesCmd.AddCommand(municipalitiesListCmd, municipalitiesShowCmd)
	rootCmd.AddCommand(municipalitiesCmd)
}
