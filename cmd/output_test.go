package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-1",
		History: pipeline.History{
			Municipality: &model.Municipality{Name: "São Paulo - SP", Geocode: 3550308},
			Disease:      model.Dengue,
			Series:       &model.Series{},
		},
		Forecast: &model.ForecastResult{
			Year:   2025,
			Model:  model.LinearRegression,
			Points: []model.ForecastPoint{{Week: 1, Cases: 3}, {Week: 7, Cases: 4.5}},
			Metrics: model.Metrics{R2Percent: 50},
		},
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", map[string]int{"a": 1}, nil))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestWriteOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "YAML", map[string]int{"a": 1}, nil))
	assert.Equal(t, "a: 1\n", buf.String())
}

func TestWriteOutput_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "table", []string{"x"}, nil))
	assert.JSONEq(t, `["x"]`, buf.String())
}

func TestWriteOutput_Unknown(t *testing.T) {
	err := writeOutput(io.Discard, "xml", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestFormatForecastTable(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	require.NoError(t, writeOutput(&buf, "table", res, func(w io.Writer) {
		formatForecastTable(w, res)
	}))

	out := buf.String()
	assert.Contains(t, out, "São Paulo - SP / Dengue / 2025 (Linear Regression)")
	assert.Contains(t, out, "07 - Fev")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "7.5")
	assert.Contains(t, out, "R2: 50.0%")
}

func TestFormatMunicipalityTable(t *testing.T) {
	var buf bytes.Buffer
	formatMunicipalityTable(&buf, &model.Municipality{Name: "Niterói - RJ", Geocode: 3303302, Population: 481749})
	assert.Contains(t, buf.String(), "3303302")
	assert.Contains(t, buf.String(), "481749")
	assert.NotContains(t, buf.String(), "BBox")
}
