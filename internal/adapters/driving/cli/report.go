package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise the unified record set",
	Long: `Prints record counts, byte totals, and per-category, per-source and
per-content-type breakdowns over everything collected so far.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	if reporter == nil {
		return errors.New("reporter not configured")
	}

	report, err := reporter.Summary(context.Background())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	cmd.Printf("Records: %d (%s)\n", report.Records, humanize.Bytes(uint64(report.TotalBytes)))

	if len(report.ByCategory) > 0 {
		cmd.Println("\nBy category:")
		for _, category := range sortedKeys(report.ByCategory) {
			cmd.Printf("  %-12s %6d  %s\n", category, report.ByCategory[category],
				humanize.Bytes(uint64(report.BytesByCategory[category])))
		}
	}

	if len(report.BySource) > 0 {
		cmd.Println("\nBy source:")
		for _, source := range sortedKeys(report.BySource) {
			cmd.Printf("  %-20s %6d\n", source, report.BySource[source])
		}
	}

	if len(report.ByContentType) > 0 {
		cmd.Println("\nBy content type:")
		for _, contentType := range sortedKeys(report.ByContentType) {
			cmd.Printf("  %-24s %6d\n", contentType, report.ByContentType[contentType])
		}
	}

	return nil
}

// sortedKeys returns map keys in sorted order for stable output.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
