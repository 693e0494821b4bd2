// Package forecast trains regression models on weekly case series and
// predicts case counts for a year of simulated covariates.
package forecast

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// DefaultSplitRatio is the training share used when none is configured.
const DefaultSplitRatio = 0.8

// Options configures one training run.
type Options struct {
	Kind            model.ModelKind
	SplitRatio      float64
	Seed            uint64
	CrossValidation bool
	Folds           int
	Trees           int
	// Year labels the result; it does not affect training.
	Year int
}

func (o Options) withDefaults() Options {
	if o.Kind == "" {
		o.Kind = model.RandomForest
	}
	if o.SplitRatio <= 0 || o.SplitRatio >= 1 {
		o.SplitRatio = DefaultSplitRatio
	}
	if o.Folds <= 0 {
		o.Folds = DefaultFolds
	}
	if o.Trees <= 0 {
		o.Trees = DefaultTrees
	}
	return o
}

// TrainAndForecast fits a model on a seeded shuffle split of series,
// scores it on the held-out rows and predicts every row of future,
// clamping predictions at zero. Fewer than two complete rows yield
// model.ErrInsufficientData; fit and predict failures are returned as
// *model.TrainingError.
func TrainAndForecast(ctx context.Context, series *model.Series, opts Options, future model.FutureCovariates) (*model.ForecastResult, error) {
	opts = opts.withDefaults()
	log := zap.L().With(zap.String("component", "forecast"), zap.String("model", string(opts.Kind)))

	data, dropped := FromSeries(series)
	if data.Len() < 2 {
		return nil, eris.Wrapf(model.ErrInsufficientData,
			"forecast: %d complete rows (%d dropped for missing features)", data.Len(), dropped)
	}
	if dropped > 0 {
		log.Debug("forecast: dropped rows with missing features", zap.Int("dropped", dropped))
	}
	if err := checkMatrix(data.X, data.Y); err != nil {
		return nil, model.NewTrainingError(opts.Kind, "fit", err)
	}

	split := TrainTestSplit(data.Len(), opts.SplitRatio, newRand(opts.Seed, streamSplit))
	train, test := data.Subset(split.Train), data.Subset(split.Test)

	reg, err := NewRegressor(opts.Kind, opts.Trees, newRand(opts.Seed, streamModel))
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(ctx, train.X, train.Y); err != nil {
		return nil, trainingError(ctx, opts.Kind, "fit", err)
	}

	var metrics model.Metrics
	if test.Len() > 0 {
		pred, err := reg.Predict(test.X)
		if err != nil {
			return nil, trainingError(ctx, opts.Kind, "predict", err)
		}
		metrics = Evaluate(test.Y, pred)
	}

	futureX := FutureMatrix(future)
	points := make([]model.ForecastPoint, 0, len(futureX))
	if len(futureX) > 0 {
		pred, err := reg.Predict(futureX)
		if err != nil {
			return nil, trainingError(ctx, opts.Kind, "predict", err)
		}
		for i, v := range pred {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, trainingError(ctx, opts.Kind, "predict",
					eris.Errorf("forecast: non-finite prediction for week %d", future.Rows[i].Week))
			}
			points = append(points, model.ForecastPoint{Week: future.Rows[i].Week, Cases: math.Max(v, 0)})
		}
	}

	result := &model.ForecastResult{
		Year:         opts.Year,
		Model:        opts.Kind,
		Seed:         opts.Seed,
		Points:       points,
		Metrics:      metrics,
		TrainPercent: split.TrainPercent(),
		TrainRows:    train.Len(),
		TestRows:     test.Len(),
	}

	if opts.CrossValidation {
		cv, err := CrossValidate(ctx, data, opts)
		if err != nil {
			return nil, trainingError(ctx, opts.Kind, "validate", err)
		}
		result.CrossValidation = cv
	}

	log.Debug("forecast: trained",
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows),
		zap.Float64("r2_percent", metrics.R2Percent),
	)
	return result, nil
}

// trainingError passes cancellation through and wraps everything else.
func trainingError(ctx context.Context, kind model.ModelKind, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return eris.Wrapf(ctxErr, "forecast: %s", stage)
	}
	return model.NewTrainingError(kind, stage, err)
}
