package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/w-datascientist/arbovirose/internal/history"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/pkg/infodengue"
)

// WeekCount is the reported case count of one epidemiological week.
type WeekCount struct {
	Week  int     `json:"week" yaml:"week"`
	Label string  `json:"label" yaml:"label"`
	Cases float64 `json:"cases" yaml:"cases"`
}

// DiseaseOverview is one disease's weekly counts for the overview year.
// A failed fetch leaves Weeks empty and sets Error.
type DiseaseOverview struct {
	Disease model.Disease `json:"disease" yaml:"disease"`
	Weeks   []WeekCount   `json:"weeks" yaml:"weeks"`
	Total   float64       `json:"total" yaml:"total"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

// Err returns the fetch or aggregation failure, if any.
func (d *DiseaseOverview) Err() error {
	return d.err
}

// Overview compares several diseases in one municipality and year.
type Overview struct {
	Municipality *model.Municipality `json:"municipality" yaml:"municipality"`
	Year         int                 `json:"year" yaml:"year"`
	Diseases     []DiseaseOverview   `json:"diseases" yaml:"diseases"`
}

// Totals maps each disease with data to its total case count.
func (o *Overview) Totals() map[model.Disease]float64 {
	out := make(map[model.Disease]float64, len(o.Diseases))
	for _, d := range o.Diseases {
		if d.err == nil {
			out[d.Disease] = d.Total
		}
	}
	return out
}

// Overview fetches every disease concurrently. A failure for one disease
// is recorded on that disease and does not affect the others; only
// context cancellation fails the whole call. Year 0 means the configured
// end year.
func (p *Pipeline) Overview(ctx context.Context, municipality string, diseases []model.Disease, year int) (*Overview, error) {
	muni, err := p.municipality(municipality)
	if err != nil {
		return nil, err
	}
	if len(diseases) == 0 {
		diseases = model.Diseases
	}
	if year == 0 {
		year = p.cfg.InfoDengue.EndYear
	}

	out := &Overview{
		Municipality: muni,
		Year:         year,
		Diseases:     make([]DiseaseOverview, len(diseases)),
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, d := range diseases {
		out.Diseases[i].Disease = d
		g.Go(func() error {
			weeks, err := p.diseaseWeeks(gCtx, muni, d, year)
			slot := &out.Diseases[i]
			if err != nil {
				slot.err = err
				slot.Error = err.Error()
				zap.L().Warn("pipeline: overview disease unavailable",
					zap.String("municipality", muni.Name),
					zap.String("disease", string(d)),
					zap.Error(err),
				)
				return nil
			}
			slot.Weeks = weeks
			for _, w := range weeks {
				slot.Total += w.Cases
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: overview")
	}
	return out, nil
}

func (p *Pipeline) diseaseWeeks(ctx context.Context, muni *model.Municipality, disease model.Disease, year int) ([]WeekCount, error) {
	if _, err := model.ParseDisease(string(disease)); err != nil {
		return nil, err
	}
	records, err := p.client.Fetch(ctx, infodengue.Query{
		Geocode:   muni.Geocode,
		Disease:   disease,
		StartYear: year,
		EndYear:   year,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.NewDataError(disease, muni.Geocode, eris.Errorf("pipeline: no records for %d", year))
	}

	obs, _ := history.Observations(records)
	series, err := history.Aggregate(obs, []int{year})
	if err != nil {
		return nil, err
	}

	weeks := make([]WeekCount, 0, series.Len())
	for _, r := range series.Rows {
		weeks = append(weeks, WeekCount{Week: r.Week, Label: history.WeekLabel(r.Week), Cases: r.Cases})
	}
	return weeks, nil
}
