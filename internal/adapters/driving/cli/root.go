// Package cli provides the command-line interface for harvest.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/harvest-cli/internal/connectors"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Persistent flags.
var (
	verbose    bool
	harvestDir string
	dedupMode  string
)

// Wired services, built once per invocation by initServices.
var (
	metaStore   *sqlite.Store
	sourceStore driven.SourceStore
	collector   driving.Collector
	reporter    driving.Reporter
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest and unify content from heterogeneous sources",
	Long: `harvest collects content from remote sources (Ordinals inscriptions,
Arweave transactions, Solana NFTs, local directories), stores each unique
payload exactly once, and merges every item into a unified, deduplicated
record set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&harvestDir, "dir", "",
		"Harvest directory (default ~/.harvest)")
	rootCmd.PersistentFlags().StringVar(&dedupMode, "dedup", "first-seen",
		"Duplicate resolution policy: first-seen or richest-metadata")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires the storage adapters, connectors and core
// services. Idempotent so tests can pre-wire fakes.
func initServices() error {
	if collector != nil {
		return nil
	}

	dir := harvestDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".harvest")
	}

	policy, err := parseDedupMode(dedupMode)
	if err != nil {
		return err
	}

	metaStore, err = sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}

	blobStore, err := blob.NewStore(filepath.Join(dir, "content"))
	if err != nil {
		return fmt.Errorf("opening content store: %w", err)
	}

	sourceStore, err = file.NewSourceStore(dir)
	if err != nil {
		return fmt.Errorf("opening source config: %w", err)
	}

	registry := services.NewAdapterRegistry()
	connectors.RegisterAll(registry)

	unifier := services.NewUnifier(blobStore, metaStore.RecordStore(), policy)
	collector = services.NewCollectOrchestrator(
		sourceStore, metaStore.CollectStateStore(), registry, unifier)
	reporter = services.NewReportService(metaStore.RecordStore())

	return nil
}

// closeServices releases wired resources.
func closeServices() {
	if metaStore != nil {
		metaStore.Close()
	}
}

// parseDedupMode maps the --dedup flag to the domain policy.
func parseDedupMode(mode string) (domain.DedupPolicy, error) {
	switch mode {
	case "first-seen", "":
		return domain.DedupFirstSeen, nil
	case "richest-metadata":
		return domain.DedupRichestMetadata, nil
	default:
		return domain.DedupFirstSeen,
			fmt.Errorf("%w: unknown dedup policy %q", domain.ErrInvalidInput, mode)
	}
}
