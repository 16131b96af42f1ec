package search

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks an upstream 429. It is retryable, but callers map
// it to a distinct client-facing status so they can apply their own backoff.
var ErrRateLimited = errors.New("rate limited by upstream")

// FetchError reports a failed fetch attempt: a non-2xx status or a
// transport-level failure. Retryable.
type FetchError struct {
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch failed: %v", e.Cause)
	}
	return fmt.Sprintf("fetch failed: unexpected status %d", e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ExhaustedError is the terminal failure of a resilient search: every
// attempt failed. It carries the attempt count and the last cause.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// IsRateLimited reports whether err was ultimately caused by upstream
// throttling, unwrapping through exhaustion and fetch errors.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
