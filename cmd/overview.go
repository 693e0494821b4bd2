package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// parseDiseases validates a list of disease names.
func parseDiseases(names []string) ([]model.Disease, error) {
	out := make([]model.Disease, 0, len(names))
	for _, n := range names {
		d, err := model.ParseDisease(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Compare weekly cases of several diseases in one year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		muni, _ := cmd.Flags().GetString("municipality")
		names, _ := cmd.Flags().GetStringSlice("diseases")
		year, _ := cmd.Flags().GetInt("year")

		diseases, err := parseDiseases(names)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		ov, err := p.Overview(cmd.Context(), muni, diseases, year)
		if err != nil {
			return err
		}

		return writeOutput(os.Stdout, outputFormat, ov, func(w io.Writer) {
			formatOverviewTable(w, ov)
		})
	},
}

func init() {
	overviewCmd.Flags().StringP("municipality", "m", "", "municipality name (default São Paulo - SP)")
	overviewCmd.Flags().StringSlice("diseases", nil, "diseases to compare (default all)")
	overviewCmd.Flags().Int("year", 0, "year to show (default config end year)")
	rootCmd.AddCommand(overviewCmd)
}
