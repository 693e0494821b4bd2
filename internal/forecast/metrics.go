package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// Evaluate scores predictions against observed values. R² is expressed as
// a percentage clamped to [0,100]; it is 0 with fewer than two rows and
// 100 for an exactly predicted constant target. An empty input scores all
// zeros.
func Evaluate(actual, predicted []float64) model.Metrics {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return model.Metrics{}
	}
	actual, predicted = actual[:n], predicted[:n]

	var absSum, sqSum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	m := model.Metrics{
		MAE: absSum / float64(n),
		MSE: sqSum / float64(n),
	}
	m.R2Percent = r2Percent(actual, predicted, sqSum)
	return m
}

func r2Percent(actual, predicted []float64, ssRes float64) float64 {
	if len(actual) < 2 {
		return 0
	}
	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 100
		}
		return 0
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(r2) {
		return 0
	}
	return math.Min(math.Max(r2*100, 0), 100)
}

// meanMetrics averages metrics over folds.
func meanMetrics(all []model.Metrics) model.Metrics {
	if len(all) == 0 {
		return model.Metrics{}
	}
	var out model.Metrics
	for _, m := range all {
		out.R2Percent += m.R2Percent
		out.MAE += m.MAE
		out.MSE += m.MSE
	}
	k := float64(len(all))
	out.R2Percent /= k
	out.MAE /= k
	out.MSE /= k
	return out
}
