package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// SourceStore persists source configurations.
type SourceStore interface {
	// Get retrieves a source by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List returns all configured sources.
	List(ctx context.Context) ([]domain.Source, error)

	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Delete removes a source, or domain.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
