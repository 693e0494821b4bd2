package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-datascientist/arbovirose/internal/model"
)

func TestWeeks(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Weeks(3))
	assert.Empty(t, Weeks(0))
	assert.Empty(t, Weeks(-2))
	assert.Len(t, Weeks(WeeksPerYear), 52)
}

func TestSimulate_Bounds(t *testing.T) {
	future := Simulate(Weeks(WeeksPerYear), 12345, NewRand(42))
	require.Len(t, future.Rows, 52)

	for i, r := range future.Rows {
		assert.Equal(t, i+1, r.Week)
		assert.GreaterOrEqual(t, r.Temperature, TempMin)
		assert.Less(t, r.Temperature, TempMax)
		assert.GreaterOrEqual(t, r.Humidity, HumidityMin)
		assert.Less(t, r.Humidity, HumidityMax)
		assert.GreaterOrEqual(t, r.Rt, RtMin)
		assert.Less(t, r.Rt, RtMax)
		assert.Equal(t, 12345.0, r.Population)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	a := Simulate(Weeks(WeeksPerYear), 100, NewRand(7))
	b := Simulate(Weeks(WeeksPerYear), 100, NewRand(7))
	assert.Equal(t, a, b)

	c := Simulate(Weeks(WeeksPerYear), 100, NewRand(8))
	assert.NotEqual(t, a, c)
}

func TestPopulationHint(t *testing.T) {
	series := &model.Series{Rows: []model.WeeklyRow{
		{Year: 2024, Week: 1, Covariates: model.Covariates{Population: model.Float(100)}},
		{Year: 2024, Week: 2, Covariates: model.Covariates{Population: model.Float(300)}},
		{Year: 2024, Week: 3},
	}}

	assert.Equal(t, 5000.0, PopulationHint(5000, series))
	assert.Equal(t, 200.0, PopulationHint(0, series))
	assert.Equal(t, 0.0, PopulationHint(0, nil))
}
