package forecast

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// DefaultFolds is the k used for cross validation when none is configured.
const DefaultFolds = 5

// CrossValidate trains a fresh model per fold and averages the held-out
// metrics. Folds are capped at the number of rows; fewer than two rows or
// folds yields nil.
func CrossValidate(ctx context.Context, d Dataset, opts Options) (*model.CrossValidation, error) {
	k := min(opts.Folds, d.Len())
	if d.Len() < 2 || k < 2 {
		return nil, nil //nolint:nilnil
	}

	folds := KFold(d.Len(), k, newRand(opts.Seed, streamFolds))
	scores := make([]model.Metrics, 0, len(folds))
	for f, testIdx := range folds {
		inTest := make(map[int]bool, len(testIdx))
		for _, i := range testIdx {
			inTest[i] = true
		}
		trainIdx := make([]int, 0, d.Len()-len(testIdx))
		for i := 0; i < d.Len(); i++ {
			if !inTest[i] {
				trainIdx = append(trainIdx, i)
			}
		}

		train, test := d.Subset(trainIdx), d.Subset(testIdx)
		reg, err := NewRegressor(opts.Kind, opts.Trees, newRand(opts.Seed, streamFolds+uint64(f)+1))
		if err != nil {
			return nil, err
		}
		if err := reg.Fit(ctx, train.X, train.Y); err != nil {
			return nil, eris.Wrapf(err, "forecast: fold %d", f+1)
		}
		pred, err := reg.Predict(test.X)
		if err != nil {
			return nil, eris.Wrapf(err, "forecast: fold %d", f+1)
		}
		scores = append(scores, Evaluate(test.Y, pred))
	}

	return &model.CrossValidation{Folds: len(folds), Metrics: meanMetrics(scores)}, nil
}
