package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// RecordStore persists the canonical record set. It must support full
// reload so the unifier can rebuild its digest index across runs, and
// append during a run so partial progress survives termination.
type RecordStore interface {
	// Save inserts a record. Returns domain.ErrAlreadyExists when a
	// record with the same GlobalID or ContentHash is present.
	Save(ctx context.Context, record *domain.CanonicalRecord) error

	// Replace overwrites an existing record identified by its
	// ContentHash. Used only by the richest-metadata dedup policy.
	Replace(ctx context.Context, record *domain.CanonicalRecord) error

	// Get retrieves a record by global ID, or domain.ErrNotFound.
	Get(ctx context.Context, globalID string) (*domain.CanonicalRecord, error)

	// List returns all records. The result is a stable snapshot at
	// call time.
	List(ctx context.Context) ([]domain.CanonicalRecord, error)

	// ListBySource returns the records first seen via one source.
	ListBySource(ctx context.Context, sourceID string) ([]domain.CanonicalRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)
}

// CollectStateStore persists per-source listing cursors across runs.
type CollectStateStore interface {
	// Get retrieves the collect state for a source, or domain.ErrNotFound.
	Get(ctx context.Context, sourceID string) (*domain.CollectState, error)

	// Save stores or updates the collect state for a source.
	Save(ctx context.Context, state domain.CollectState) error
}
