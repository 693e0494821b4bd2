package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-datascientist/arbovirose/internal/model"
)

func newForecastFlags() *cobra.Command {
	cmd := &cobra.Command{Use: "forecast"}
	fs := cmd.Flags()
	addRequestFlags(fs)
	fs.String("model", "", "")
	fs.Float64("split", 0, "")
	fs.Uint64("seed", 0, "")
	fs.Bool("cv", false, "")
	fs.Bool("per-year", false, "")
	fs.Int("target-year", 0, "")
	return cmd
}

func TestRequestFromFlags_Unset(t *testing.T) {
	cmd := newForecastFlags()
	require.NoError(t, cmd.Flags().Parse(nil))

	req, err := requestFromFlags(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, model.Dengue, req.Disease)
	assert.Empty(t, req.Municipality)
	assert.Nil(t, req.Seed)
	assert.Nil(t, req.CrossValidation)
	assert.Nil(t, req.CombineYears)
	assert.Zero(t, req.SplitRatio)
}

func TestRequestFromFlags_Set(t *testing.T) {
	cmd := newForecastFlags()
	require.NoError(t, cmd.Flags().Parse([]string{
		"-m", "Niterói - RJ", "-d", "zika", "--model", "linear", "--split", "0.7",
		"--seed", "0", "--cv", "--per-year", "--years", "2022,2023", "--target-year", "2026",
	}))

	req, err := requestFromFlags(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, "Niterói - RJ", req.Municipality)
	assert.Equal(t, model.Zika, req.Disease)
	assert.Equal(t, model.ModelKind("linear"), req.Model)
	assert.Equal(t, 0.7, req.SplitRatio)
	require.NotNil(t, req.Seed)
	assert.Equal(t, uint64(0), *req.Seed)
	require.NotNil(t, req.CrossValidation)
	assert.True(t, *req.CrossValidation)
	require.NotNil(t, req.CombineYears)
	assert.False(t, *req.CombineYears)
	assert.Equal(t, []int{2022, 2023}, req.Years)
	assert.Equal(t, 2026, req.TargetYear)
}

func TestRequestFromFlags_SeriesOnly(t *testing.T) {
	cmd := &cobra.Command{Use: "series"}
	addRequestFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--start-year", "2020"}))

	req, err := requestFromFlags(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 2020, req.StartYear)
	assert.Empty(t, req.Model)
}

func TestRequestFromFlags_SplitOutOfRange(t *testing.T) {
	for _, split := range []string{"1.5", "0", "-0.2", "1"} {
		cmd := newForecastFlags()
		require.NoError(t, cmd.Flags().Parse([]string{"--split", split}))

		_, err := requestFromFlags(cmd.Flags())
		require.Error(t, err, "split %s", split)
		assert.Contains(t, err.Error(), "--split")
	}
}

func TestParseDiseases(t *testing.T) {
	ds, err := parseDiseases([]string{"Dengue", "zika"})
	require.NoError(t, err)
	assert.Equal(t, []model.Disease{model.Dengue, model.Zika}, ds)

	_, err = parseDiseases([]string{"malaria"})
	assert.ErrorIs(t, err, model.ErrInvalidDisease)
}
