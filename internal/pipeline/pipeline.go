// Package pipeline wires the catalog, the surveillance client, the
// aggregator, the simulator and the forecast engine into one
// parameterized run.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/catalog"
	"github.com/w-datascientist/arbovirose/internal/config"
	"github.com/w-datascientist/arbovirose/internal/forecast"
	"github.com/w-datascientist/arbovirose/internal/history"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/simulate"
	"github.com/w-datascientist/arbovirose/pkg/infodengue"
)

// Pipeline runs history, forecast and overview requests. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	client  infodengue.Client
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, cat *catalog.Catalog, client infodengue.Client) *Pipeline {
	return &Pipeline{cfg: cfg, catalog: cat, client: client}
}

// Catalog returns the municipality catalog.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Request parameterizes a history or forecast run. Zero values fall back
// to configuration; the pointer fields distinguish "unset" from false/0.
type Request struct {
	Municipality    string
	Disease         model.Disease
	Model           model.ModelKind
	CrossValidation *bool
	// Years restricts training to these years; empty means every year
	// fetched.
	Years        []int
	SplitRatio   float64
	Seed         *uint64
	StartYear    int
	EndYear      int
	TargetYear   int
	CombineYears *bool
}

// History is the aggregated surveillance data of one municipality and
// disease.
type History struct {
	Municipality *model.Municipality `json:"municipality" yaml:"municipality"`
	Disease      model.Disease       `json:"disease" yaml:"disease"`
	// Series holds per-year rows of the selected years.
	Series         *model.Series    `json:"series" yaml:"series"`
	AvailableYears []int            `json:"available_years" yaml:"available_years"`
	Rejected       history.Rejected `json:"rejected" yaml:"rejected"`
}

// Result is the output of a forecast run.
type Result struct {
	RunID string `json:"run_id" yaml:"run_id"`

	History  `yaml:",inline"`
	Forecast *model.ForecastResult  `json:"forecast" yaml:"forecast"`
	Future   model.FutureCovariates `json:"future" yaml:"future"`
}

// History fetches and aggregates the records a forecast would train on.
func (p *Pipeline) History(ctx context.Context, req Request) (*History, error) {
	muni, err := p.municipality(req.Municipality)
	if err != nil {
		return nil, err
	}
	disease := req.Disease
	if disease == "" {
		disease = model.Dengue
	}
	if disease, err = model.ParseDisease(string(disease)); err != nil {
		return nil, err
	}

	start, end := p.yearRange(req.StartYear, req.EndYear)
	records, err := p.client.Fetch(ctx, infodengue.Query{
		Geocode:   muni.Geocode,
		Disease:   disease,
		StartYear: start,
		EndYear:   end,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.NewDataError(disease, muni.Geocode,
			eris.Errorf("pipeline: no records for %d-%d", start, end))
	}

	obs, rejected := history.Observations(records)
	if rejected.InvalidWeek > 0 || rejected.NegativeCases > 0 {
		zap.L().Warn("pipeline: corrected surveillance records",
			zap.String("municipality", muni.Name),
			zap.String("disease", string(disease)),
			zap.Int("invalid_week", rejected.InvalidWeek),
			zap.Int("negative_cases", rejected.NegativeCases),
		)
	}

	all, err := history.Aggregate(obs, nil)
	if err != nil {
		return nil, err
	}
	series := all
	if len(req.Years) > 0 {
		if series, err = history.Aggregate(obs, req.Years); err != nil {
			return nil, err
		}
	}

	return &History{
		Municipality:   muni,
		Disease:        disease,
		Series:         series,
		AvailableYears: all.Years(),
		Rejected:       rejected,
	}, nil
}

// Forecast runs catalog lookup, fetch, aggregation, simulation, training
// and prediction for one request.
func (p *Pipeline) Forecast(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	kind, err := p.modelKind(req.Model)
	if err != nil {
		return nil, err
	}

	hist, err := p.History(ctx, req)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("municipality", hist.Municipality.Name),
		zap.String("disease", string(hist.Disease)),
		zap.String("model", string(kind)),
	)

	training := hist.Series
	if p.boolOr(req.CombineYears, p.cfg.Forecast.CombineYears) {
		training = history.ByWeek(hist.Series)
	}

	seed := p.seed(req.Seed)
	target := req.TargetYear
	if target == 0 {
		target = TargetYear(hist.AvailableYears)
	}

	pop := simulate.PopulationHint(hist.Municipality.Population, hist.Series)
	future := simulate.Simulate(simulate.Weeks(simulate.WeeksPerYear), pop, simulate.NewRand(seed))

	split := req.SplitRatio
	if split == 0 {
		split = p.cfg.Forecast.SplitRatio
	}

	fr, err := forecast.TrainAndForecast(ctx, training, forecast.Options{
		Kind:            kind,
		SplitRatio:      split,
		Seed:            seed,
		CrossValidation: p.boolOr(req.CrossValidation, p.cfg.Forecast.CrossValidation),
		Folds:           p.cfg.Forecast.Folds,
		Trees:           p.cfg.Forecast.Trees,
		Year:            target,
	}, future)
	if err != nil {
		log.Warn("pipeline: forecast failed", zap.Error(err))
		return nil, err
	}

	res := &Result{
		RunID:    uuid.NewString(),
		History:  *hist,
		Forecast: fr,
		Future:   future,
	}
	log.Info("pipeline: forecast complete",
		zap.String("run_id", res.RunID),
		zap.Int("target_year", target),
		zap.Float64("total_cases", fr.TotalCases()),
		zap.Float64("r2_percent", fr.Metrics.R2Percent),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// TargetYear is the year after the last year with data, or the current
// year when there is none.
func TargetYear(years []int) int {
	if len(years) == 0 {
		return time.Now().Year()
	}
	last := years[0]
	for _, y := range years[1:] {
		last = max(last, y)
	}
	return last + 1
}

func (p *Pipeline) municipality(name string) (*model.Municipality, error) {
	if p.catalog == nil {
		return nil, eris.Wrap(model.ErrCatalogUnavailable, "pipeline: no catalog")
	}
	if name == "" {
		return p.catalog.Default()
	}
	return p.catalog.Lookup(name)
}

func (p *Pipeline) modelKind(kind model.ModelKind) (model.ModelKind, error) {
	if kind == "" {
		kind = model.ModelKind(p.cfg.Forecast.Model)
	}
	if kind == "" {
		return model.RandomForest, nil
	}
	return model.ParseModelKind(string(kind))
}

func (p *Pipeline) yearRange(start, end int) (int, int) {
	if start == 0 {
		start = p.cfg.InfoDengue.StartYear
	}
	if end == 0 {
		end = p.cfg.InfoDengue.EndYear
	}
	return start, end
}

func (p *Pipeline) seed(override *uint64) uint64 {
	switch {
	case override != nil:
		return *override
	case p.cfg.Forecast.RandomSeed:
		return rand.Uint64()
	}
	return p.cfg.Forecast.Seed
}

func (p *Pipeline) boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}
