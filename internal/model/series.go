package model

import "sort"

// Covariates holds the epidemiological and meteorological values reported
// alongside a weekly case count. Nil means the source did not report it.
type Covariates struct {
	TempMean     *float64 `json:"temp_mean,omitempty" yaml:"temp_mean,omitempty"`
	TempMin      *float64 `json:"temp_min,omitempty" yaml:"temp_min,omitempty"`
	TempMax      *float64 `json:"temp_max,omitempty" yaml:"temp_max,omitempty"`
	HumidityMean *float64 `json:"humidity_mean,omitempty" yaml:"humidity_mean,omitempty"`
	HumidityMin  *float64 `json:"humidity_min,omitempty" yaml:"humidity_min,omitempty"`
	HumidityMax  *float64 `json:"humidity_max,omitempty" yaml:"humidity_max,omitempty"`
	Rt           *float64 `json:"rt,omitempty" yaml:"rt,omitempty"`
	Population   *float64 `json:"population,omitempty" yaml:"population,omitempty"`
}

// Observation is one week of surveillance data for a municipality and disease.
type Observation struct {
	EpiWeek        int      `json:"epi_week" yaml:"epi_week"` // YYYYWW
	Year           int      `json:"year" yaml:"year"`
	Week           int      `json:"week" yaml:"week"`
	Cases          int64    `json:"cases" yaml:"cases"`
	CasesEstimated *float64 `json:"cases_estimated,omitempty" yaml:"cases_estimated,omitempty"`
	AlertLevel     *int     `json:"alert_level,omitempty" yaml:"alert_level,omitempty"`

	Covariates `yaml:",inline"`
}

// WeeklyRow is one aggregated row of a Series. Year is zero once rows from
// several years have been collapsed into calendar weeks.
type WeeklyRow struct {
	Year    int     `json:"year,omitempty" yaml:"year,omitempty"`
	Week    int     `json:"week" yaml:"week"`
	Cases   float64 `json:"cases" yaml:"cases"`
	Reports int     `json:"reports" yaml:"reports"`

	Covariates `yaml:",inline"`
}

// Series is a table of weekly rows ordered by (year, week).
type Series struct {
	Rows []WeeklyRow `json:"rows" yaml:"rows"`
}

// Len returns the number of rows.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Years returns the distinct years present, ascending.
func (s *Series) Years() []int {
	if s == nil {
		return nil
	}
	seen := make(map[int]bool)
	var years []int
	for _, r := range s.Rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Year returns the rows of a single year.
func (s *Series) Year(year int) []WeeklyRow {
	if s == nil {
		return nil
	}
	var rows []WeeklyRow
	for _, r := range s.Rows {
		if r.Year == year {
			rows = append(rows, r)
		}
	}
	return rows
}

// TotalCases sums the case column.
func (s *Series) TotalCases() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, r := range s.Rows {
		total += r.Cases
	}
	return total
}

// MeanPopulation averages the reported population, or 0 when none was reported.
func (s *Series) MeanPopulation() float64 {
	if s == nil {
		return 0
	}
	var sum float64
	var n int
	for _, r := range s.Rows {
		if r.Population != nil {
			sum += *r.Population
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
