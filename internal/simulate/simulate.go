// Package simulate generates synthetic covariates for the forecast year.
//
// The bounds below are placeholders rather than climatology: temperature,
// humidity and Rt are drawn uniformly and independently for each week.
package simulate

import (
	"math/rand/v2"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// Uniform sampling bounds.
const (
	TempMin     = 20.0
	TempMax     = 30.0
	HumidityMin = 60.0
	HumidityMax = 90.0
	RtMin       = 0.8
	RtMax       = 1.2
)

// WeeksPerYear is the number of forecast weeks.
const WeeksPerYear = 52

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Weeks returns 1..n.
func Weeks(n int) []int {
	weeks := make([]int, 0, max(n, 0))
	for w := 1; w <= n; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}

// Simulate draws one row per week, holding population constant. Draw order
// is temperature, humidity, Rt per week, so a fixed seed reproduces the
// table exactly.
func Simulate(weeks []int, population float64, rng *rand.Rand) model.FutureCovariates {
	rows := make([]model.FutureRow, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, model.FutureRow{
			Week:        w,
			Temperature: uniform(rng, TempMin, TempMax),
			Humidity:    uniform(rng, HumidityMin, HumidityMax),
			Rt:          uniform(rng, RtMin, RtMax),
			Population:  population,
		})
	}
	return model.FutureCovariates{Rows: rows}
}

// PopulationHint prefers the catalog population and falls back to the
// mean reported by the series.
func PopulationHint(catalogPopulation int64, series *model.Series) float64 {
	if catalogPopulation > 0 {
		return float64(catalogPopulation)
	}
	return series.MeanPopulation()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
