package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// SourceAdapter lists and fetches content from one source.
// Each adapter type (ordinals, arweave, solana, local) implements this
// interface; the scheduler and unifier depend only on it.
type SourceAdapter interface {
	// Type returns the adapter type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Info returns static characteristics of this adapter.
	Info() AdapterInfo

	// Endpoints returns content-fetch endpoint identifiers in fallback
	// priority order. At least one entry.
	Endpoints() []string

	// RateLimit returns the per-source admission policy. The scheduler
	// owns the limiter; adapters only declare the quota.
	RateLimit() domain.RateLimitPolicy

	// Validate checks the adapter is properly configured before any
	// scheduling begins. Configuration problems here are fatal to the
	// run for this source.
	Validate(ctx context.Context) error

	// ListCandidates fetches one page of candidate items starting at
	// cursor (empty means the beginning). Returns the items and the
	// cursor for the next page; an empty next cursor means end of list.
	ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error)

	// FetchContent retrieves raw content for one item from a specific
	// endpoint. Transient failures are wrapped via domain.Retryable.
	FetchContent(ctx context.Context, item domain.CandidateItem, endpoint string) ([]byte, error)

	// MapFields extracts source-specific metadata for the canonical
	// record. Invoked once per inserted record; the unifier stores the
	// result opaquely.
	MapFields(item domain.CandidateItem, blob domain.ContentBlob) map[string]any

	// Close releases resources.
	Close() error
}

// AdapterInfo describes static characteristics of an adapter.
type AdapterInfo struct {
	// EndpointScopedLimit indicates the rate limit applies per endpoint
	// rather than per source: fallback attempts against alternative
	// endpoints are not charged against the primary quota.
	EndpointScopedLimit bool

	// SupportsWatch indicates the adapter can push change events.
	SupportsWatch bool

	// RequiresNetwork indicates listing and fetching reach a remote
	// API. False for local imports.
	RequiresNetwork bool
}

// Watcher is implemented by adapters that can push change events
// (currently only the local directory adapter).
type Watcher interface {
	// Watch emits candidate items for content appearing while watching.
	// The channel closes when ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.CandidateItem, error)
}

// AdapterFactory creates source adapters from configuration.
type AdapterFactory interface {
	// Create builds an adapter for the source. Returns
	// domain.ErrUnsupportedType for unknown source types and
	// domain.ErrInvalidConfig for malformed configuration.
	Create(ctx context.Context, source domain.Source) (SourceAdapter, error)
}
