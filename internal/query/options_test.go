package query

import (
	"testing"
	"time"
)

func TestDefaultRetryDelayDoubles(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tc := range cases {
		if got := DefaultRetryDelay(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: want %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	o := Options{}.withDefaults()

	if o.StaleTime != DefaultStaleTime {
		t.Errorf("want stale time %v, got %v", DefaultStaleTime, o.StaleTime)
	}
	if o.CacheTime != DefaultCacheTime {
		t.Errorf("want cache time %v, got %v", DefaultCacheTime, o.CacheTime)
	}
	if o.Retry != DefaultRetry {
		t.Errorf("want retry %d, got %d", DefaultRetry, o.Retry)
	}
	if o.RetryDelay == nil {
		t.Error("RetryDelay must default")
	}
	if o.RetryIf == nil {
		t.Error("RetryIf must default")
	}
	if !o.RetryIf(nil) {
		t.Error("default RetryIf must retry every error")
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	o := Options{
		StaleTime: time.Minute,
		CacheTime: time.Hour,
		Retry:     7,
	}.withDefaults()

	if o.StaleTime != time.Minute || o.CacheTime != time.Hour || o.Retry != 7 {
		t.Errorf("explicit values must survive: %+v", o)
	}
}

func TestNegativeRetryDisablesRetries(t *testing.T) {
	o := Options{Retry: -3}.withDefaults()
	if o.Retry != 0 {
		t.Errorf("negative retry must disable retries, got %d", o.Retry)
	}
}
