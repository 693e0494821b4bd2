package model

// FutureRow holds the simulated covariates for one week of the forecast year.
type FutureRow struct {
	Week        int     `json:"week" yaml:"week"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	Rt          float64 `json:"rt" yaml:"rt"`
	Population  float64 `json:"population" yaml:"population"`
}

// FutureCovariates is the synthetic covariate table fed to a trained model.
type FutureCovariates struct {
	Rows []FutureRow `json:"rows" yaml:"rows"`
}

// ForecastPoint is the predicted case count for one week.
type ForecastPoint struct {
	Week  int     `json:"week" yaml:"week"`
	Cases float64 `json:"cases" yaml:"cases"`
}

// Metrics are the accuracy figures of a model on held-out rows.
type Metrics struct {
	R2Percent float64 `json:"r2_percent" yaml:"r2_percent"` // clamped to [0,100]
	MAE       float64 `json:"mae" yaml:"mae"`
	MSE       float64 `json:"mse" yaml:"mse"`
}

// CrossValidation holds k-fold metrics averaged over folds.
type CrossValidation struct {
	Folds int `json:"folds" yaml:"folds"`

	Metrics `yaml:",inline"`
}

// ForecastResult is the output of one training and forecasting run.
type ForecastResult struct {
	Year            int              `json:"year" yaml:"year"`
	Model           ModelKind        `json:"model" yaml:"model"`
	Seed            uint64           `json:"seed" yaml:"seed"`
	Points          []ForecastPoint  `json:"points" yaml:"points"`
	Metrics         Metrics          `json:"metrics" yaml:"metrics"`
	CrossValidation *CrossValidation `json:"cross_validation,omitempty" yaml:"cross_validation,omitempty"`
	TrainPercent    float64          `json:"train_percent" yaml:"train_percent"`
	TrainRows       int              `json:"train_rows" yaml:"train_rows"`
	TestRows        int              `json:"test_rows" yaml:"test_rows"`
}

// TotalCases sums the predicted cases over all weeks.
func (r *ForecastResult) TotalCases() float64 {
	var total float64
	for _, p := range r.Points {
		total += p.Cases
	}
	return total
}
