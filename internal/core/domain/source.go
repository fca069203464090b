package domain

import "time"

// Source represents a configured content source.
// Each source produces candidate items via an adapter.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the adapter type (e.g. "ordinals", "arweave").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains adapter-specific configuration (API keys,
	// mime-type filters, directory roots).
	Config map[string]string

	// CreatedAt is when the source was configured.
	CreatedAt time.Time
}

// RateLimitPolicy caps requests within any rolling window of fixed
// duration. A zero MaxRequests means unlimited.
type RateLimitPolicy struct {
	// MaxRequests is the number of requests permitted per window.
	MaxRequests int

	// Window is the rolling window duration.
	Window time.Duration
}

// Unlimited reports whether the policy imposes no cap.
func (p RateLimitPolicy) Unlimited() bool {
	return p.MaxRequests <= 0 || p.Window <= 0
}

// Default fetch policy values.
const (
	DefaultWorkers         = 4
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultMaxContentBytes = 10 << 20 // 10 MiB
)

// FetchPolicy bounds how the scheduler fetches one source's candidates.
type FetchPolicy struct {
	// Workers is the width of the bounded worker pool.
	Workers int

	// MaxAttempts caps retries of transient failures per endpoint.
	MaxAttempts int

	// RetryDelay is the base delay between attempts on the same
	// endpoint; doubled after each failed attempt.
	RetryDelay time.Duration

	// MaxContentBytes skips items whose declared size exceeds it before
	// any network call. Zero disables the check.
	MaxContentBytes int64

	// PaceRPS throttles the whole pool to this many requests per second
	// as host-level politeness, independent of the rolling-window
	// limiter. Zero disables pacing.
	PaceRPS float64

	// Deadline is an optional wall-clock cutoff. After it passes the
	// scheduler admits no new items; in-flight fetches finish.
	Deadline time.Time
}

// Normalised returns the policy with zero values replaced by defaults.
func (p FetchPolicy) Normalised() FetchPolicy {
	if p.Workers <= 0 {
		p.Workers = DefaultWorkers
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = DefaultRetryDelay
	}
	if p.MaxContentBytes < 0 {
		p.MaxContentBytes = DefaultMaxContentBytes
	}
	return p
}

// CollectState tracks listing progress for a source across runs.
type CollectState struct {
	// SourceID links to the Source being collected.
	SourceID string

	// Cursor is an opaque adapter-specific listing position.
	Cursor string

	// LastRun is when the last successful run completed.
	LastRun time.Time
}
