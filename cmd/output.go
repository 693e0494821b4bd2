package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/w-datascientist/arbovirose/internal/history"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/pipeline"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// writeOutput encodes v in the requested format. table renders v with
// the given function, falling back to JSON when it is nil.
func writeOutput(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "output: encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return eris.Wrap(enc.Close(), "output: close yaml")
	case formatTable:
		if table == nil {
			return writeOutput(w, formatJSON, v, nil)
		}
		table(w)
		return nil
	}
	return eris.Errorf("output: unknown format %q", format)
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatForecastTable(w io.Writer, res *pipeline.Result) {
	fr := res.Forecast
	fmt.Fprintf(w, "%s / %s / %d (%s)\n", res.Municipality.Name, res.Disease.Label(), fr.Year, fr.Model.Label())
	fmt.Fprintf(w, "Run: %s  Seed: %d  Train: %.0f%% (%d train, %d test)\n",
		res.RunID, fr.Seed, fr.TrainPercent, fr.TrainRows, fr.TestRows)
	fmt.Fprintf(w, "R2: %.1f%%  MAE: %.2f  MSE: %.2f\n", fr.Metrics.R2Percent, fr.Metrics.MAE, fr.Metrics.MSE)
	if cv := fr.CrossValidation; cv != nil {
		fmt.Fprintf(w, "CV (%d folds) R2: %.1f%%  MAE: %.2f  MSE: %.2f\n", cv.Folds, cv.R2Percent, cv.MAE, cv.MSE)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tLABEL\tCASES")
	for _, p := range fr.Points {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\n", p.Week, history.WeekLabel(p.Week), p.Cases)
	}
	fmt.Fprintf(tw, "\tTOTAL\t%.1f\n", fr.TotalCases())
	_ = tw.Flush()
}

func formatSeriesTable(w io.Writer, h *pipeline.History) {
	fmt.Fprintf(w, "%s / %s  years: %v\n\n", h.Municipality.Name, h.Disease.Label(), h.AvailableYears)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tWEEK\tCASES\tTEMP\tHUMIDITY\tRT\tPOP")
	for _, r := range h.Series.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%s\t%s\n",
			r.Year, history.WeekLabel(r.Week), r.Cases,
			optFloat(r.TempMean), optFloat(r.HumidityMean), optFloat(r.Rt), optFloat(r.Population))
	}
	_ = tw.Flush()
}

func formatOverviewTable(w io.Writer, ov *pipeline.Overview) {
	fmt.Fprintf(w, "%s / %d\n\n", ov.Municipality.Name, ov.Year)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DISEASE\tWEEKS\tTOTAL\tERROR")
	for _, d := range ov.Diseases {
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%s\n", d.Disease.Label(), len(d.Weeks), d.Total, d.Error)
	}
	_ = tw.Flush()
}

func formatMunicipalityTable(w io.Writer, m *model.Municipality) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", m.Name)
	fmt.Fprintf(tw, "Geocode:\t%d\n", m.Geocode)
	fmt.Fprintf(tw, "Population:\t%d\n", m.Population)
	if b, ok := m.BBox(); ok {
		lon, lat := b.Center()
		fmt.Fprintf(tw, "Center:\t%.4f, %.4f\n", lat, lon)
		fmt.Fprintf(tw, "BBox:\t%.4f %.4f %.4f %.4f\n", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
	}
	_ = tw.Flush()
}

func formatNames(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}
