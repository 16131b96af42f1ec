package search

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/namisearch/nami/internal/metrics"
)

// SearcherConfig tunes the retry loop.
type SearcherConfig struct {
	Retries     int
	BackoffBase time.Duration
}

// Searcher wraps a Fetcher in a retry loop with exponential backoff and
// jitter, extracting results from each successful fetch. Transient
// failures are absorbed here; only exhaustion surfaces.
type Searcher struct {
	fetcher Fetcher
	cfg     SearcherConfig
	logger  *zap.Logger

	// sleep and jitter are swapped out in tests to observe backoff timing
	// without waiting on the wall clock.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewSearcher constructs a Searcher.
func NewSearcher(fetcher Fetcher, cfg SearcherConfig, logger *zap.Logger) *Searcher {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepContext,
		jitter:  rand.Float64,
	}
}

// Search fetches rawURL and extracts up to maxResults results, retrying
// rate limits and fetch failures until the attempt budget runs out. The
// terminal error is an ExhaustedError carrying the last cause.
func (s *Searcher) Search(ctx context.Context, rawURL string, maxResults int) ([]Result, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		metrics.FetchAttempts.Inc()
		page, err := s.fetcher.Fetch(ctx, rawURL)
		if err == nil {
			results, extractErr := Extract(page.Body, maxResults)
			if extractErr == nil {
				return results, nil
			}
			err = extractErr
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if attempt == s.cfg.Retries-1 {
			break
		}
		delay := s.backoff(attempt)
		s.logger.Warn("search attempt failed, backing off",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, &ExhaustedError{Attempts: s.cfg.Retries, Last: lastErr}
}

// backoff returns base * 2^attempt plus up to one second of jitter, so
// concurrent callers hitting the same throttle do not retry in lockstep.
func (s *Searcher) backoff(attempt int) time.Duration {
	exp := float64(s.cfg.BackoffBase) * math.Pow(2, float64(attempt))
	return time.Duration(exp) + time.Duration(s.jitter()*float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
