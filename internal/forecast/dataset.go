package forecast

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// FeatureNames lists the model inputs in column order.
var FeatureNames = []string{"week", "temp_mean", "humidity_mean", "rt", "population"}

// Dataset is a feature matrix with its target column.
type Dataset struct {
	X [][]float64
	Y []float64
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Y)
}

// Subset returns the rows at idx.
func (d Dataset) Subset(idx []int) Dataset {
	out := Dataset{X: make([][]float64, len(idx)), Y: make([]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// FromSeries builds the training table, dropping rows with any missing
// feature. It also returns the number of dropped rows.
func FromSeries(s *model.Series) (Dataset, int) {
	var d Dataset
	if s == nil {
		return d, 0
	}
	dropped := 0
	for _, r := range s.Rows {
		if r.TempMean == nil || r.HumidityMean == nil || r.Rt == nil || r.Population == nil {
			dropped++
			continue
		}
		d.X = append(d.X, []float64{float64(r.Week), *r.TempMean, *r.HumidityMean, *r.Rt, *r.Population})
		d.Y = append(d.Y, r.Cases)
	}
	return d, dropped
}

// FutureMatrix lays out simulated covariates in FeatureNames order.
func FutureMatrix(f model.FutureCovariates) [][]float64 {
	x := make([][]float64, len(f.Rows))
	for i, r := range f.Rows {
		x[i] = []float64{float64(r.Week), r.Temperature, r.Humidity, r.Rt, r.Population}
	}
	return x
}

// checkMatrix rejects ragged, empty or non-finite input.
func checkMatrix(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return eris.New("forecast: empty feature matrix")
	}
	if y != nil && len(y) != len(x) {
		return eris.Errorf("forecast: %d rows but %d targets", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return eris.New("forecast: feature matrix has no columns")
	}
	for i, row := range x {
		if len(row) != width {
			return eris.Errorf("forecast: row %d has %d columns, want %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return eris.Errorf("forecast: non-finite value at row %d column %d", i, j)
			}
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("forecast: non-finite target at row %d", i)
		}
	}
	return nil
}
