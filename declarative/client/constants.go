package client

import "time"

const (
	// DefaultRetryPeriod is the initial wait between retry attempts.
	DefaultRetryPeriod = 100 * time.Millisecond

	// DefaultRetryMaxPeriod caps the wait between retry attempts.
	DefaultRetryMaxPeriod = 1 * time.Second

	// DefaultMaxAttempts is the total attempt budget per invocation.
	DefaultMaxAttempts = 5
)
