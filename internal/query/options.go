package query

import "time"

const (
	// DefaultStaleTime is how long a cached value stays fresh when the
	// caller does not specify a stale window.
	DefaultStaleTime = 30 * time.Second

	// DefaultCacheTime is how long an entry with no subscribers
	// survives before eviction.
	DefaultCacheTime = 5 * time.Minute

	// DefaultRetry is the default maximum retry attempts on failure.
	DefaultRetry = 3

	// maxRetryDelay caps the exponential backoff.
	maxRetryDelay = 30 * time.Second
)

// Options configures caching and retry behavior for one query key.
type Options struct {
	// StaleTime is the duration after which cached data is considered
	// stale and eligible for a background refresh.
	StaleTime time.Duration

	// CacheTime is the duration after which an entry with no active
	// subscribers is evicted entirely.
	CacheTime time.Duration

	// Retry is the maximum number of retry attempts after a failed
	// fetch. Zero selects DefaultRetry; negative disables retries.
	Retry int

	// RetryDelay maps an attempt index (0-based) to a backoff duration.
	// Nil selects DefaultRetryDelay.
	RetryDelay func(attempt int) time.Duration

	// RetryIf reports whether a fetch error is transient and worth
	// retrying. Nil retries every error.
	RetryIf func(err error) bool
}

// withDefaults fills in zero-valued fields.
func (o Options) withDefaults() Options {
	if o.StaleTime <= 0 {
		o.StaleTime = DefaultStaleTime
	}
	if o.CacheTime <= 0 {
		o.CacheTime = DefaultCacheTime
	}
	if o.Retry == 0 {
		o.Retry = DefaultRetry
	} else if o.Retry < 0 {
		o.Retry = 0
	}
	if o.RetryDelay == nil {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.RetryIf == nil {
		o.RetryIf = func(error) bool { return true }
	}
	return o
}

// DefaultRetryDelay doubles a one-second delay per attempt, capped at
// thirty seconds: min(1s * 2^attempt, 30s).
func DefaultRetryDelay(attempt int) time.Duration {
	delay := time.Second
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
