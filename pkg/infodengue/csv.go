package infodengue

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/w-datascientist/arbovirose/internal/fetcher"
)

// recordsFromCSV maps a CSV table onto records by header name. Only the SE
// column is required.
func recordsFromCSV(table *fetcher.CSVTable) ([]Record, error) {
	if table.Header == nil {
		return []Record{}, nil
	}
	seIdx := table.Column("SE")
	if seIdx < 0 {
		return nil, eris.New("infodengue: csv has no SE column")
	}

	floats := []struct {
		column string
		dst    func(r *Record) **float64
	}{
		{"casos", func(r *Record) **float64 { return &r.Cases }},
		{"casos_est", func(r *Record) **float64 { return &r.CasesEstimated }},
		{"nivel", func(r *Record) **float64 { return &r.AlertLevel }},
		{"tempmed", func(r *Record) **float64 { return &r.TempMean }},
		{"tempmin", func(r *Record) **float64 { return &r.TempMin }},
		{"tempmax", func(r *Record) **float64 { return &r.TempMax }},
		{"umidmed", func(r *Record) **float64 { return &r.HumidityMean }},
		{"umidmin", func(r *Record) **float64 { return &r.HumidityMin }},
		{"umidmax", func(r *Record) **float64 { return &r.HumidityMax }},
		{"Rt", func(r *Record) **float64 { return &r.Rt }},
		{"pop", func(r *Record) **float64 { return &r.Population }},
	}
	idx := make([]int, len(floats))
	for i, f := range floats {
		idx[i] = table.Column(f.column)
	}
	dateIdx := table.Column("data_iniSE")

	records := make([]Record, 0, len(table.Rows))
	for n, row := range table.Rows {
		se, ok := parseNullable(cell(row, seIdx))
		if !ok {
			return nil, eris.Errorf("infodengue: csv row %d: invalid SE %q", n+1, cell(row, seIdx))
		}
		rec := Record{EpiWeek: int(se)}
		for i, f := range floats {
			if v, ok := parseNullable(cell(row, idx[i])); ok {
				*f.dst(&rec) = &v
			}
		}
		if err := rec.WeekStart.parse(cell(row, dateIdx)); err != nil {
			return nil, eris.Wrapf(err, "infodengue: csv row %d", n+1)
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNullable treats empty, NA and NaN cells as missing.
func parseNullable(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
