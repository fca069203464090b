package driving

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// CollectOptions bounds one collect run for a source.
type CollectOptions struct {
	// Target is the number of successful fetches to aim for.
	// Zero means exhaust the candidate list.
	Target int

	// Policy overrides the default fetch policy. Zero fields fall back
	// to defaults.
	Policy domain.FetchPolicy

	// Resume continues listing from the persisted cursor instead of
	// the beginning.
	Resume bool
}

// CollectStatus reports progress of an active or finished run.
type CollectStatus struct {
	// RunID identifies the run.
	RunID string

	// SourceID is the source being collected.
	SourceID string

	// Running indicates the run is still active.
	Running bool

	// Listed counts candidates produced by the listing calls.
	Listed int

	// Fetched counts successful content fetches.
	Fetched int

	// Inserted counts new canonical records.
	Inserted int

	// Duplicates counts content already present in the unified store.
	Duplicates int

	// Failures counts items whose fetch or ingest failed.
	Failures int
}

// Collector drives collect runs over configured sources.
type Collector interface {
	// Collect runs collection for one source until the target is met,
	// candidates are exhausted, or the run deadline elapses. Item-level
	// failures never fail the run; partial progress is always kept.
	Collect(ctx context.Context, sourceID string, opts CollectOptions) (*CollectStatus, error)

	// CollectAll runs collection over every configured source,
	// continuing past per-source errors and joining them at the end.
	CollectAll(ctx context.Context, opts CollectOptions) error

	// Status returns progress for a source's active run, or an idle
	// status when none is running.
	Status(ctx context.Context, sourceID string) (*CollectStatus, error)
}
