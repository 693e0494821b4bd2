package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/pipeline"
)

// addRequestFlags registers the flags shared by forecast and series.
func addRequestFlags(fs *pflag.FlagSet) {
	fs.StringP("municipality", "m", "", "municipality name (default São Paulo - SP)")
	fs.StringP("disease", "d", string(model.Dengue), "dengue, chikungunya or zika")
	fs.IntSlice("years", nil, "restrict training to these years")
	fs.Int("start-year", 0, "first year to fetch (default from config)")
	fs.Int("end-year", 0, "last year to fetch (default from config)")
}

// requestFromFlags builds a pipeline request. Only flags the user set
// override config.
func requestFromFlags(fs *pflag.FlagSet) (pipeline.Request, error) {
	var req pipeline.Request
	req.Municipality, _ = fs.GetString("municipality")
	disease, _ := fs.GetString("disease")
	req.Disease = model.Disease(disease)
	req.Years, _ = fs.GetIntSlice("years")
	req.StartYear, _ = fs.GetInt("start-year")
	req.EndYear, _ = fs.GetInt("end-year")

	if fs.Lookup("model") == nil {
		return req, nil
	}
	kind, _ := fs.GetString("model")
	req.Model = model.ModelKind(kind)
	req.SplitRatio, _ = fs.GetFloat64("split")
	if fs.Changed("split") && (req.SplitRatio <= 0 || req.SplitRatio >= 1) {
		return req, eris.Errorf("invalid --split %v: must be between 0 and 1", req.SplitRatio)
	}
	req.TargetYear, _ = fs.GetInt("target-year")
	if fs.Changed("cv") {
		cv, _ := fs.GetBool("cv")
		req.CrossValidation = &cv
	}
	if fs.Changed("seed") {
		seed, _ := fs.GetUint64("seed")
		req.Seed = &seed
	}
	if fs.Changed("per-year") {
		perYear, _ := fs.GetBool("per-year")
		combine := !perYear
		req.CombineYears = &combine
	}
	return req, nil
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Train a model and forecast weekly cases for the next year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := requestFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.Forecast(cmd.Context(), req)
		if err != nil {
			return err
		}

		return writeOutput(os.Stdout, outputFormat, res, func(w io.Writer) {
			formatForecastTable(w, res)
		})
	},
}

func init() {
	fs := forecastCmd.Flags()
	addRequestFlags(fs)
	fs.String("model", "", "random_forest or linear_regression (default from config)")
	fs.Float64("split", 0, "training share of rows (default from config)")
	fs.Uint64("seed", 0, "random seed (default from config)")
	fs.Bool("cv", false, "also report k-fold cross validation metrics")
	fs.Bool("per-year", false, "train on per-year rows instead of weeks averaged across years")
	fs.Int("target-year", 0, "year to forecast (default last data year + 1)")
	rootCmd.AddCommand(forecastCmd)
}
