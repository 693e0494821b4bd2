package infodengue

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Record is one weekly row of the alertcity endpoint. Nullable numeric
// columns decode to nil.
type Record struct {
	EpiWeek        int      `json:"SE"`
	Cases          *float64 `json:"casos"`
	CasesEstimated *float64 `json:"casos_est"`
	AlertLevel     *float64 `json:"nivel"`
	TempMean       *float64 `json:"tempmed"`
	TempMin        *float64 `json:"tempmin"`
	TempMax        *float64 `json:"tempmax"`
	HumidityMean   *float64 `json:"umidmed"`
	HumidityMin    *float64 `json:"umidmin"`
	HumidityMax    *float64 `json:"umidmax"`
	Rt             *float64 `json:"Rt"`
	Population     *float64 `json:"pop"`
	WeekStart      Date     `json:"data_iniSE"`
}

// Date is the first day of an epidemiological week. The JSON format sends
// epoch milliseconds and the CSV format sends YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON accepts epoch milliseconds, a date string, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "infodengue: decode date")
		}
		return d.parse(s)
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrapf(err, "infodengue: decode date %s", data)
	}
	d.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// MarshalJSON writes the date as YYYY-MM-DD, or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return eris.Wrapf(err, "infodengue: parse date %q", s)
	}
	d.Time = t
	return nil
}
