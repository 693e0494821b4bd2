package infodengue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-datascientist/arbovirose/internal/fetcher"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/resilience"
)

const sampleJSON = `[
  {"SE":202402,"casos":15,"casos_est":16.5,"nivel":2,"tempmed":24.1,"tempmin":19.0,"tempmax":29.3,
   "umidmed":71.2,"umidmin":50.0,"umidmax":90.1,"Rt":1.05,"pop":11451245,"data_iniSE":1704585600000},
  {"SE":202401,"casos":12,"casos_est":null,"nivel":1,"tempmed":null,"tempmin":null,"tempmax":null,
   "umidmed":null,"umidmin":null,"umidmax":null,"Rt":0.97,"pop":11451245,"data_iniSE":1703980800000}
]`

const sampleCSV = `data_iniSE,SE,casos_est,casos,nivel,tempmed,umidmed,Rt,pop
2024-01-07,202402,16.5,15,2,24.1,71.2,1.05,11451245.0
2023-12-31,202401,,12,1,NA,,0.97,11451245.0
`

func testFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout: 2 * time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
		RatePerSec: 1000,
	})
}

func testQuery() Query {
	return Query{Geocode: 3550308, Disease: model.Dengue, StartYear: 2023, EndYear: 2024}
}

func TestFetch_JSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alertcity", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "3550308", q.Get("geocode"))
		assert.Equal(t, "dengue", q.Get("disease"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("ew_start"))
		assert.Equal(t, "52", q.Get("ew_end"))
		assert.Equal(t, "2023", q.Get("ey_start"))
		assert.Equal(t, "2024", q.Get("ey_end"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL+"/api/"), WithFetcher(testFetcher()))
	records, err := client.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, 202402, first.EpiWeek)
	require.NotNil(t, first.Cases)
	assert.InDelta(t, 15.0, *first.Cases, 1e-9)
	require.NotNil(t, first.TempMean)
	assert.InDelta(t, 24.1, *first.TempMean, 1e-9)
	assert.Equal(t, "2024-01-07", first.WeekStart.Format("2006-01-02"))

	second := records[1]
	assert.Nil(t, second.CasesEstimated)
	assert.Nil(t, second.TempMean)
	assert.Nil(t, second.HumidityMean)
	require.NotNil(t, second.Rt)
	assert.InDelta(t, 0.97, *second.Rt, 1e-9)
}

func TestFetch_CSV(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithFormat("CSV"), WithFetcher(testFetcher()))
	records, err := client.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 202402, records[0].EpiWeek)
	require.NotNil(t, records[0].Population)
	assert.InDelta(t, 11451245.0, *records[0].Population, 1e-9)
	assert.Equal(t, "2024-01-07", records[0].WeekStart.Format("2006-01-02"))

	assert.Nil(t, records[1].CasesEstimated)
	assert.Nil(t, records[1].TempMean)
	assert.Nil(t, records[1].HumidityMean)
	assert.Nil(t, records[1].TempMin, "absent column stays missing")
}

func TestFetch_EmptyArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithFetcher(testFetcher()))
	records, err := client.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetch_FailuresAreDataUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		format  string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", format: FormatJSON, wantErr: "download"},
		{name: "not found", status: http.StatusNotFound, body: "", format: FormatJSON, wantErr: "unexpected status 404"},
		{name: "malformed json", status: http.StatusOK, body: `[{"SE":"x"}]`, format: FormatJSON, wantErr: "decode json"},
		{name: "object instead of array", status: http.StatusOK, body: `{"error":"bad geocode"}`, format: FormatJSON, wantErr: "decode json"},
		{name: "csv without SE", status: http.StatusOK, body: "casos\n1\n", format: FormatCSV, wantErr: "no SE column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL), WithFormat(tt.format), WithFetcher(testFetcher()))
			records, err := client.Fetch(context.Background(), testQuery())
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrDataUnavailable))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.NotNil(t, records)
			assert.Empty(t, records)

			var de *model.DataError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, model.Dengue, de.Disease)
			assert.Equal(t, int64(3550308), de.Geocode)
		})
	}
}

func TestFetch_InvalidQuery(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithFetcher(testFetcher()))
	for _, q := range []Query{
		{Geocode: 0, Disease: model.Dengue, StartYear: 2020, EndYear: 2021},
		{Geocode: 1, Disease: "malaria", StartYear: 2020, EndYear: 2021},
		{Geocode: 1, Disease: model.Zika, StartYear: 2022, EndYear: 2021},
	} {
		_, err := client.Fetch(context.Background(), q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrDataUnavailable))
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetch_BreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("infodengue-test", 2, time.Hour)
	client := NewClient(WithBaseURL(srv.URL), WithFetcher(testFetcher()), WithBreaker(breaker))

	for range 4 {
		_, err := client.Fetch(context.Background(), testQuery())
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrDataUnavailable))
	}
	// Two fetches of two attempts each, then the breaker rejects.
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, resilience.Open, breaker.State())
}

func TestFetch_NotFoundKeepsBreakerClosed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("geocode") == "9999999" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("infodengue-test", 2, time.Hour)
	client := NewClient(WithBaseURL(srv.URL), WithFetcher(testFetcher()), WithBreaker(breaker))

	bad := testQuery()
	bad.Geocode = 9999999
	for range 5 {
		_, err := client.Fetch(context.Background(), bad)
		require.Error(t, err)
		assert.False(t, errors.Is(err, resilience.ErrBreakerOpen))
	}
	assert.Equal(t, resilience.Closed, breaker.State())

	records, err := client.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	assert.NotEmpty(t, records)
}

func TestFetch_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL), WithFetcher(testFetcher()))
	records, err := client.Fetch(ctx, testQuery())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))
	assert.Empty(t, records)
}

func TestAlertCityURL(t *testing.T) {
	t.Parallel()

	got := AlertCityURL("https://info.dengue.mat.br/api/", FormatCSV, Query{
		Geocode: 3304557, Disease: model.Chikungunya, StartYear: 2014, EndYear: 2024,
	})
	assert.Equal(t,
		"https://info.dengue.mat.br/api/alertcity?disease=chikungunya&ew_end=52&ew_start=1&ey_end=2024&ey_start=2014&format=csv&geocode=3304557",
		got)
}

func TestDate_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-01-07"`)))
	assert.Equal(t, "2024-01-07", d.Format(dateLayout))

	require.NoError(t, d.UnmarshalJSON([]byte(`1704585600000`)))
	assert.Equal(t, "2024-01-07", d.Format(dateLayout))

	require.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.True(t, d.IsZero())

	assert.Error(t, d.UnmarshalJSON([]byte(`"07/01/2024"`)))

	out, err := Date{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
