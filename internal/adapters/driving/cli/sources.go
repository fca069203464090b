package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage configured sources",
	Long:  `List, add, remove, or validate the sources harvest collects from.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Add or update a source",
	Long: `Adds a source. Source-specific settings are passed as repeated
--set key=value flags, e.g.:

  harvest sources add ordinals-png --type ordinals --set mime_type=image/png
  harvest sources add my-files --type local --set path=/data/downloads`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

// Add flags.
var (
	sourceType string
	sourceName string
	sourceSets []string
)

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceType, "type", "",
		"Source type: ordinals, arweave, solana, or local")
	sourcesAddCmd.Flags().StringVar(&sourceName, "name", "",
		"Human-readable source name")
	sourcesAddCmd.Flags().StringArrayVar(&sourceSets, "set", nil,
		"Source setting as key=value (repeatable)")
	sourcesAddCmd.MarkFlagRequired("type")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	sources, err := sourceStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources configured. Add one with: harvest sources add")
		return nil
	}

	for _, source := range sources {
		cmd.Printf("  %s (%s)\n", source.ID, source.Type)
		if source.Name != "" {
			cmd.Printf("    Name: %s\n", source.Name)
		}
		for k, v := range source.Config {
			cmd.Printf("    %s: %s\n", k, v)
		}
	}
	cmd.Printf("\nTotal: %d sources\n", len(sources))
	return nil
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	config := make(map[string]string, len(sourceSets))
	for _, set := range sourceSets {
		key, value, found := strings.Cut(set, "=")
		if !found || key == "" {
			return fmt.Errorf("%w: --set needs key=value, got %q", domain.ErrInvalidInput, set)
		}
		config[key] = value
	}

	source := domain.Source{
		ID:     args[0],
		Type:   sourceType,
		Name:   sourceName,
		Config: config,
	}

	if err := sourceStore.Save(context.Background(), source); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	cmd.Printf("Source %s saved.\n", source.ID)
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	if err := sourceStore.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Source %s removed.\n", args[0])
	return nil
}
