package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Show the aggregated weekly surveillance series",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := requestFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		h, err := p.History(cmd.Context(), req)
		if err != nil {
			return err
		}

		return writeOutput(os.Stdout, outputFormat, h, func(w io.Writer) {
			formatSeriesTable(w, h)
		})
	},
}

func init() {
	addRequestFlags(seriesCmd.Flags())
	rootCmd.AddCommand(seriesCmd)
}
