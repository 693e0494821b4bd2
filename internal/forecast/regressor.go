package forecast

import (
	"context"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// Regressor is a trainable single-output regression model.
type Regressor interface {
	Fit(ctx context.Context, x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// Independent random streams derived from one seed.
const (
	streamSplit uint64 = iota + 1
	streamModel
	streamFolds
)

func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// NewRegressor returns an untrained model of the given kind.
func NewRegressor(kind model.ModelKind, trees int, rng *rand.Rand) (Regressor, error) {
	switch kind {
	case model.LinearRegression:
		return &LinearModel{}, nil
	case model.RandomForest:
		return NewForest(trees, rng), nil
	}
	return nil, eris.Wrapf(model.ErrInvalidModel, "forecast: unknown model %q", kind)
}
