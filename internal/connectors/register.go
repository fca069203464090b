package connectors

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/connectors/arweave"
	"github.com/custodia-labs/harvest-cli/internal/connectors/local"
	"github.com/custodia-labs/harvest-cli/internal/connectors/ordinals"
	"github.com/custodia-labs/harvest-cli/internal/connectors/solana"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
)

// RegisterAll wires every built-in adapter type into the registry.
func RegisterAll(registry *services.AdapterRegistry) {
	registry.Register("ordinals", func(_ context.Context, source domain.Source) (driven.SourceAdapter, error) {
		cfg, err := ordinals.ParseConfig(source)
		if err != nil {
			return nil, err
		}
		return ordinals.New(source.ID, cfg), nil
	})

	registry.Register("arweave", func(_ context.Context, source domain.Source) (driven.SourceAdapter, error) {
		cfg, err := arweave.ParseConfig(source)
		if err != nil {
			return nil, err
		}
		return arweave.New(source.ID, cfg), nil
	})

	registry.Register("solana", func(_ context.Context, source domain.Source) (driven.SourceAdapter, error) {
		cfg, err := solana.ParseConfig(source)
		if err != nil {
			return nil, err
		}
		return solana.New(source.ID, cfg), nil
	})

	registry.Register("local", func(_ context.Context, source domain.Source) (driven.SourceAdapter, error) {
		cfg, err := local.ParseConfig(source)
		if err != nil {
			return nil, err
		}
		return local.New(source.ID, cfg), nil
	})
}
