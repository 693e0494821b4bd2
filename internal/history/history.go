// Package history turns raw surveillance records into weekly series keyed
// by (year, week).
package history

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/pkg/infodengue"
)

// Epidemiological week bounds. Codes are YYYYWW, so the year has four
// digits.
const (
	MinWeek = 1
	MaxWeek = 53
	MinYear = 1000
	MaxYear = 9999
)

// Rejected counts the records that were dropped or corrected while
// building observations.
type Rejected struct {
	InvalidWeek   int `json:"invalid_week" yaml:"invalid_week"`
	NegativeCases int `json:"negative_cases" yaml:"negative_cases"`
}

// SplitEpiWeek decomposes a YYYYWW code.
func SplitEpiWeek(code int) (year, week int) {
	return code / 100, code % 100
}

// EpiWeek builds a YYYYWW code.
func EpiWeek(year, week int) int {
	return year*100 + week
}

// Observations converts API records to observations. Records whose code
// is not a six-digit YYYYWW or whose week falls outside 1..53 are dropped and negative case counts are clamped to
// zero; both are counted in Rejected. A missing case count reads as zero.
func Observations(records []infodengue.Record) ([]model.Observation, Rejected) {
	var rej Rejected
	obs := make([]model.Observation, 0, len(records))
	for _, r := range records {
		year, week := SplitEpiWeek(r.EpiWeek)
		if year < MinYear || year > MaxYear || week < MinWeek || week > MaxWeek {
			rej.InvalidWeek++
			continue
		}

		var cases int64
		if r.Cases != nil {
			cases = int64(math.Round(*r.Cases))
		}
		if cases < 0 {
			rej.NegativeCases++
			cases = 0
		}

		o := model.Observation{
			EpiWeek:        r.EpiWeek,
			Year:           year,
			Week:           week,
			Cases:          cases,
			CasesEstimated: r.CasesEstimated,
			Covariates: model.Covariates{
				TempMean:     r.TempMean,
				TempMin:      r.TempMin,
				TempMax:      r.TempMax,
				HumidityMean: r.HumidityMean,
				HumidityMin:  r.HumidityMin,
				HumidityMax:  r.HumidityMax,
				Rt:           r.Rt,
				Population:   r.Population,
			},
		}
		if r.AlertLevel != nil {
			level := int(math.Round(*r.AlertLevel))
			o.AlertLevel = &level
		}
		obs = append(obs, o)
	}
	return obs, rej
}

// Aggregate keeps the observations of the selected years (all years when
// years is empty) and averages them per (year, week). It returns
// model.ErrInsufficientData when nothing survives the filter.
func Aggregate(obs []model.Observation, years []int) (*model.Series, error) {
	keep := yearSet(years)
	rows := make([]model.WeeklyRow, 0, len(obs))
	for _, o := range obs {
		if keep != nil && !keep[o.Year] {
			continue
		}
		rows = append(rows, model.WeeklyRow{
			Year:       o.Year,
			Week:       o.Week,
			Cases:      float64(o.Cases),
			Reports:    1,
			Covariates: o.Covariates,
		})
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(model.ErrInsufficientData, "history: no observations for years %v", years)
	}
	return &model.Series{Rows: Regroup(rows)}, nil
}

// ByWeek collapses all years into one row per calendar week. Year is zero
// on the result.
func ByWeek(s *model.Series) *model.Series {
	if s == nil {
		return &model.Series{}
	}
	rows := make([]model.WeeklyRow, len(s.Rows))
	for i, r := range s.Rows {
		r.Year = 0
		rows[i] = r
	}
	return &model.Series{Rows: Regroup(rows)}
}

// Regroup averages rows sharing a (year, week) key and orders the result
// by key. Reports are summed. Regrouping its own output is a no-op.
func Regroup(rows []model.WeeklyRow) []model.WeeklyRow {
	type key struct{ year, week int }
	groups := make(map[key]*accumulator)
	var keys []key
	for _, r := range rows {
		k := key{r.Year, r.Week}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.add(r)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})

	out := make([]model.WeeklyRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k].row(k.year, k.week))
	}
	return out
}

// yearSet returns nil when every year is selected.
func yearSet(years []int) map[int]bool {
	if len(years) == 0 {
		return nil
	}
	set := make(map[int]bool, len(years))
	for _, y := range years {
		set[y] = true
	}
	return set
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil || math.IsNaN(*v) {
		return
	}
	m.sum += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	return model.Float(m.sum / float64(m.n))
}

type accumulator struct {
	cases   float64
	rows    int
	reports int

	tempMean, tempMin, tempMax             mean
	humidityMean, humidityMin, humidityMax mean
	rt, population                         mean
}

func (a *accumulator) add(r model.WeeklyRow) {
	a.cases += r.Cases
	a.rows++
	a.reports += max(r.Reports, 1)
	a.tempMean.add(r.TempMean)
	a.tempMin.add(r.TempMin)
	a.tempMax.add(r.TempMax)
	a.humidityMean.add(r.HumidityMean)
	a.humidityMin.add(r.HumidityMin)
	a.humidityMax.add(r.HumidityMax)
	a.rt.add(r.Rt)
	a.population.add(r.Population)
}

func (a *accumulator) row(year, week int) model.WeeklyRow {
	return model.WeeklyRow{
		Year:    year,
		Week:    week,
		Cases:   a.cases / float64(a.rows),
		Reports: a.reports,
		Covariates: model.Covariates{
			TempMean:     a.tempMean.value(),
			TempMin:      a.tempMin.value(),
			TempMax:      a.tempMax.value(),
			HumidityMean: a.humidityMean.value(),
			HumidityMin:  a.humidityMin.value(),
			HumidityMax:  a.humidityMax.value(),
			Rt:           a.rt.value(),
			Population:   a.population.value(),
		},
	}
}
