package search

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namisearch/nami/internal/metrics"
)

// AggregatorConfig names the upstream engine and the query filters.
type AggregatorConfig struct {
	BaseURL     string
	Filetype    string
	ArchiveHost string
}

// resultSearcher is what the Aggregator needs from a Searcher.
type resultSearcher interface {
	Search(ctx context.Context, rawURL string, maxResults int) ([]Result, error)
}

// Aggregator runs the unrestricted and archive-scoped searches for one
// query concurrently and joins them into a single Response. Either side's
// terminal failure fails the whole call: callers get a complete two-sided
// answer or an error, never a half-empty payload.
type Aggregator struct {
	searcher resultSearcher
	cfg      AggregatorConfig
	logger   *zap.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(searcher resultSearcher, cfg AggregatorConfig, logger *zap.Logger) *Aggregator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.google.com/search"
	}
	if cfg.Filetype == "" {
		cfg.Filetype = "pdf"
	}
	if cfg.ArchiveHost == "" {
		cfg.ArchiveHost = "archive.org"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Aggregate fans out both searches for query and waits for both before
// composing the response.
func (a *Aggregator) Aggregate(ctx context.Context, query string, numResults int) (Response, error) {
	globalURL := a.searchURL(fmt.Sprintf("filetype:%s %s", a.cfg.Filetype, query))
	archiveURL := a.searchURL(fmt.Sprintf("site:%s filetype:%s %s", a.cfg.ArchiveHost, a.cfg.Filetype, query))

	var globalResults, archiveResults []Result
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := a.searcher.Search(gCtx, globalURL, numResults)
		if err != nil {
			metrics.Searches.WithLabelValues("global", "error").Inc()
			return fmt.Errorf("global search: %w", err)
		}
		metrics.Searches.WithLabelValues("global", "ok").Inc()
		globalResults = results
		return nil
	})
	g.Go(func() error {
		results, err := a.searcher.Search(gCtx, archiveURL, numResults)
		if err != nil {
			metrics.Searches.WithLabelValues("archive", "error").Inc()
			return fmt.Errorf("archive search: %w", err)
		}
		metrics.Searches.WithLabelValues("archive", "ok").Inc()
		archiveResults = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	a.logger.Debug("searches joined",
		zap.String("query", query),
		zap.Int("global_results", len(globalResults)),
		zap.Int("archive_results", len(archiveResults)),
	)
	return Response{
		GlobalResults:  globalResults,
		ArchiveResults: archiveResults,
	}, nil
}

func (a *Aggregator) searchURL(query string) string {
	return fmt.Sprintf("%s?q=%s", a.cfg.BaseURL, url.QueryEscape(query))
}
