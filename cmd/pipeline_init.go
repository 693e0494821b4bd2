package main

import (
	"github.com/w-datascientist/arbovirose/internal/catalog"
	"github.com/w-datascientist/arbovirose/internal/config"
	"github.com/w-datascientist/arbovirose/internal/fetcher"
	"github.com/w-datascientist/arbovirose/internal/pipeline"
	"github.com/w-datascientist/arbovirose/internal/resilience"
	"github.com/w-datascientist/arbovirose/pkg/infodengue"
)

// retryBackoffMs is the initial backoff between InfoDengue attempts.
const retryBackoffMs = 500

// initCatalog loads the municipality catalog named in config.
func initCatalog() (*catalog.Catalog, error) {
	return catalog.Load(cfg.Catalog.Path)
}

// retryConfig turns the configured retry count into total attempts.
func retryConfig(ic config.InfoDengueConfig) resilience.RetryConfig {
	return resilience.FromAttempts(max(ic.MaxRetries, 0)+1, retryBackoffMs)
}

// newInfoDengueClient builds the surveillance client from config.
func newInfoDengueClient() infodengue.Client {
	ic := cfg.InfoDengue
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    ic.Timeout(),
		Retry:      retryConfig(ic),
		RatePerSec: ic.RatePerSec,
	})
	return infodengue.NewClient(
		infodengue.WithBaseURL(ic.BaseURL),
		infodengue.WithFormat(ic.Format),
		infodengue.WithFetcher(f),
		infodengue.WithBreaker(resilience.NewBreaker("infodengue", ic.BreakerThreshold, ic.BreakerReset())),
	)
}

// initPipeline loads the catalog and wires the surveillance client into a
// Pipeline.
func initPipeline() (*pipeline.Pipeline, error) {
	cat, err := initCatalog()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, cat, newInfoDengueClient()), nil
}
