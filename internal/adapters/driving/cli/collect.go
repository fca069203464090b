package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
)

var collectCmd = &cobra.Command{
	Use:   "collect [source-id]",
	Short: "Collect content from sources",
	Long: `Runs a collect pass. If a source ID is provided, only that source is
collected; otherwise every configured source is collected in turn.
Item-level fetch failures are counted, not fatal: everything inserted
before a failure stays collected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

// Collect flags.
var (
	collectTarget   int
	collectWorkers  int
	collectMaxBytes int64
	collectPace     float64
	collectDuration time.Duration
	collectResume   bool
)

func init() {
	collectCmd.Flags().IntVarP(&collectTarget, "target", "t", 0,
		"Stop after this many successful fetches per source (0 = no cap)")
	collectCmd.Flags().IntVarP(&collectWorkers, "workers", "w", 0,
		"Concurrent fetch workers per source (0 = default)")
	collectCmd.Flags().Int64Var(&collectMaxBytes, "max-bytes", 0,
		"Skip items whose declared size exceeds this (0 = default ceiling)")
	collectCmd.Flags().Float64Var(&collectPace, "pace", 0,
		"Pool-wide politeness pace in requests/second (0 = off)")
	collectCmd.Flags().DurationVar(&collectDuration, "duration", 0,
		"Stop starting new work after this much time (0 = no deadline)")
	collectCmd.Flags().BoolVar(&collectResume, "resume", false,
		"Resume listing from the last persisted cursor")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	if collector == nil {
		return errors.New("collector not configured")
	}

	ctx := context.Background()
	opts := driving.CollectOptions{
		Target: collectTarget,
		Resume: collectResume,
		Policy: domain.FetchPolicy{
			Workers:         collectWorkers,
			MaxContentBytes: collectMaxBytes,
			PaceRPS:         collectPace,
		},
	}
	if collectDuration > 0 {
		opts.Policy.Deadline = time.Now().Add(collectDuration)
	}

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Collecting source: %s...\n", sourceID)

		status, err := collectWithProgress(ctx, cmd, sourceID, opts)
		if err != nil {
			return fmt.Errorf("collect failed: %w", err)
		}
		printStatus(cmd, status)
		return nil
	}

	cmd.Println("Collecting all sources...")
	if err := collector.CollectAll(ctx, opts); err != nil {
		return fmt.Errorf("collect failed: %w", err)
	}
	cmd.Println("All sources collected.")
	return nil
}

// collectWithProgress runs collect while displaying progress updates.
func collectWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	sourceID string,
	opts driving.CollectOptions,
) (*driving.CollectStatus, error) {
	type result struct {
		status *driving.CollectStatus
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		status, err := collector.Collect(ctx, sourceID, opts)
		resCh <- result{status: status, err: err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastFetched := 0
	for {
		select {
		case res := <-resCh:
			return res.status, res.err
		case <-ticker.C:
			// Best effort: a status error just skips one update.
			status, err := collector.Status(ctx, sourceID)
			if err == nil && status != nil && status.Fetched > lastFetched {
				cmd.Printf("\rFetched %d items...", status.Fetched)
				lastFetched = status.Fetched
			}
		}
	}
}

// printStatus renders the final run summary.
func printStatus(cmd *cobra.Command, status *driving.CollectStatus) {
	if status == nil {
		return
	}
	cmd.Printf("\rRun %s complete:\n", status.RunID)
	cmd.Printf("  Listed:     %d\n", status.Listed)
	cmd.Printf("  Fetched:    %d\n", status.Fetched)
	cmd.Printf("  Inserted:   %d\n", status.Inserted)
	cmd.Printf("  Duplicates: %d\n", status.Duplicates)
	cmd.Printf("  Failures:   %d\n", status.Failures)
}
