// Package infodengue provides a client for the InfoDengue alertcity API,
// which publishes weekly arbovirus surveillance data per municipality.
package infodengue

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/fetcher"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/resilience"
)

// DefaultBaseURL is the public InfoDengue API root.
const DefaultBaseURL = "https://info.dengue.mat.br/api"

// Response formats supported by the alertcity endpoint.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Client defines the surveillance data operations.
type Client interface {
	// Fetch returns the weekly records for a municipality and disease over
	// the query's year range. On any failure it returns an empty slice and
	// an error matching model.ErrDataUnavailable.
	Fetch(ctx context.Context, q Query) ([]Record, error)
}

// Query selects a municipality, a disease and an inclusive year range.
// Weeks always span 1 through 52.
type Query struct {
	Geocode   int64
	Disease   model.Disease
	StartYear int
	EndYear   int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithFormat selects the json or csv response format.
func WithFormat(format string) Option {
	return func(c *httpClient) {
		c.format = strings.ToLower(format)
	}
}

// WithFetcher sets the downloader used for requests.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *httpClient) {
		c.fetcher = f
	}
}

// WithBreaker sets the circuit breaker guarding the API.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	baseURL string
	format  string
	fetcher fetcher.Fetcher
	breaker *resilience.Breaker
}

// NewClient creates a new InfoDengue client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		format:  FormatJSON,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 10 * time.Second})
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker("infodengue", 0, 0)
	}
	return c
}

// AlertCityURL builds the alertcity request URL for q.
func AlertCityURL(baseURL, format string, q Query) string {
	params := url.Values{}
	params.Set("geocode", strconv.FormatInt(q.Geocode, 10))
	params.Set("disease", string(q.Disease))
	params.Set("format", format)
	params.Set("ew_start", "1")
	params.Set("ew_end", "52")
	params.Set("ey_start", strconv.Itoa(q.StartYear))
	params.Set("ey_end", strconv.Itoa(q.EndYear))
	return strings.TrimRight(baseURL, "/") + "/alertcity?" + params.Encode()
}

func (c *httpClient) Fetch(ctx context.Context, q Query) ([]Record, error) {
	if err := validate(q); err != nil {
		return []Record{}, model.NewDataError(q.Disease, q.Geocode, err)
	}
	if c.format != FormatJSON && c.format != FormatCSV {
		return []Record{}, model.NewDataError(q.Disease, q.Geocode,
			eris.Errorf("infodengue: unsupported format %q", c.format))
	}

	reqURL := AlertCityURL(c.baseURL, c.format, q)
	log := zap.L().With(
		zap.String("component", "infodengue"),
		zap.Int64("geocode", q.Geocode),
		zap.String("disease", string(q.Disease)),
	)

	start := time.Now()
	records, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]Record, error) {
		return c.download(ctx, reqURL)
	})
	if err != nil {
		log.Warn("infodengue: fetch failed", zap.Error(err))
		return []Record{}, model.NewDataError(q.Disease, q.Geocode, err)
	}

	log.Debug("infodengue: fetched records",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (c *httpClient) download(ctx context.Context, reqURL string) ([]Record, error) {
	body, err := c.fetcher.Download(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "infodengue: download")
	}
	defer body.Close() //nolint:errcheck

	if c.format == FormatCSV {
		table, err := fetcher.CollectCSV(ctx, body, fetcher.CSVOptions{TrimSpace: true})
		if err != nil {
			return nil, eris.Wrap(err, "infodengue: decode csv")
		}
		return recordsFromCSV(table)
	}

	records, err := fetcher.CollectJSONArray[Record](ctx, body)
	if err != nil {
		return nil, eris.Wrap(err, "infodengue: decode json")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func validate(q Query) error {
	if q.Geocode <= 0 {
		return eris.Errorf("infodengue: invalid geocode %d", q.Geocode)
	}
	if _, err := model.ParseDisease(string(q.Disease)); err != nil {
		return err
	}
	if q.StartYear <= 0 || q.StartYear > q.EndYear {
		return eris.Errorf("infodengue: invalid year range %d-%d", q.StartYear, q.EndYear)
	}
	return nil
}
