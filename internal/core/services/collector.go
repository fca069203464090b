package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure CollectOrchestrator implements the interface.
var _ driving.Collector = (*CollectOrchestrator)(nil)

// CollectOrchestrator coordinates collect runs: it lists candidates
// through a source's adapter, drives the fetch scheduler, and feeds
// completed outcomes to the unifier from a single consumer loop.
type CollectOrchestrator struct {
	sourceStore driven.SourceStore
	stateStore  driven.CollectStateStore
	factory     driven.AdapterFactory
	unifier     *Unifier

	// Status tracking
	mu         sync.RWMutex
	activeRuns map[string]*driving.CollectStatus
}

// NewCollectOrchestrator creates a new collect orchestrator.
func NewCollectOrchestrator(
	sourceStore driven.SourceStore,
	stateStore driven.CollectStateStore,
	factory driven.AdapterFactory,
	unifier *Unifier,
) *CollectOrchestrator {
	return &CollectOrchestrator{
		sourceStore: sourceStore,
		stateStore:  stateStore,
		factory:     factory,
		unifier:     unifier,
		activeRuns:  make(map[string]*driving.CollectStatus),
	}
}

// Collect runs collection for one source. Item-level failures are
// counted, never propagated; records inserted before any termination
// are already persisted.
func (o *CollectOrchestrator) Collect(ctx context.Context, sourceID string, opts driving.CollectOptions) (*driving.CollectStatus, error) {
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	if o.factory == nil {
		return nil, fmt.Errorf("create adapter: adapter factory not configured")
	}
	adapter, err := o.factory.Create(ctx, *source)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}
	defer adapter.Close()

	// Configuration problems are fatal before any scheduling begins.
	if err := adapter.Validate(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, sourceID, err)
	}

	if err := o.unifier.Rebuild(ctx); err != nil {
		return nil, err
	}

	status := &driving.CollectStatus{
		RunID:    uuid.NewString(),
		SourceID: sourceID,
		Running:  true,
	}
	if !o.setStatus(sourceID, status) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectInProgress, sourceID)
	}
	defer o.clearStatus(sourceID)

	logger.Info("Starting collect run %s for source %s", status.RunID, sourceID)

	cursor := ""
	if opts.Resume {
		if state, stateErr := o.stateStore.Get(ctx, sourceID); stateErr == nil {
			cursor = state.Cursor
		}
	}

	scheduler := NewFetchScheduler(adapter, opts.Policy)
	cursor, runErr := o.runPages(ctx, adapter, scheduler, status, opts, cursor)

	// A terminated run still keeps everything inserted so far; only
	// the cursor save is skipped on hard failure.
	if runErr == nil {
		newState := domain.CollectState{
			SourceID: sourceID,
			Cursor:   cursor,
			LastRun:  time.Now(),
		}
		if saveErr := o.stateStore.Save(ctx, newState); saveErr != nil {
			runErr = fmt.Errorf("save collect state: %w", saveErr)
		}
	}

	status.Running = false
	logger.Info("Collect run %s complete: %d listed, %d fetched, %d inserted, %d duplicates, %d failures",
		status.RunID, status.Listed, status.Fetched, status.Inserted, status.Duplicates, status.Failures)

	return o.snapshot(status), runErr
}

// runPages pages through the adapter's candidate listing and processes
// each page until the target is met, the list ends, or the deadline
// elapses. Returns the cursor to persist.
func (o *CollectOrchestrator) runPages(
	ctx context.Context,
	adapter driven.SourceAdapter,
	scheduler *FetchScheduler,
	status *driving.CollectStatus,
	opts driving.CollectOptions,
	cursor string,
) (string, error) {
	deadline := opts.Policy.Deadline

	for {
		if ctx.Err() != nil {
			return cursor, ctx.Err()
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			logger.Info("Deadline reached: stopping listing for %s", status.SourceID)
			return cursor, nil
		}
		if opts.Target > 0 && status.Fetched >= opts.Target {
			return cursor, nil
		}

		// Listing calls are charged against the same quota as fetches.
		if err := scheduler.Admit(ctx); err != nil {
			return cursor, err
		}

		items, next, err := adapter.ListCandidates(ctx, cursor)
		if err != nil {
			// Listing exhaustion or a mid-run adapter error ends this
			// source's run without aborting the whole invocation.
			logger.Warn("Listing failed for %s at cursor %q: %v", status.SourceID, cursor, err)
			return cursor, nil
		}
		status.Listed += len(items)

		if opts.Target > 0 {
			if want := opts.Target - status.Fetched; len(items) > want {
				items = items[:want]
			}
		}

		o.processBatch(ctx, adapter, scheduler, status, items)

		if next == "" {
			return cursor, nil
		}
		cursor = next

		if len(items) == 0 {
			// Defensive: an adapter returning an empty page with a
			// cursor identical to the previous one would loop forever.
			return cursor, nil
		}
	}
}

// processBatch fetches one page of candidates and ingests every
// outcome. This loop is the single consumer of the completion channel:
// the unifier is driven synchronously from here.
func (o *CollectOrchestrator) processBatch(
	ctx context.Context,
	adapter driven.SourceAdapter,
	scheduler *FetchScheduler,
	status *driving.CollectStatus,
	items []domain.CandidateItem,
) {
	for outcome := range scheduler.Run(ctx, items) {
		if outcome.Succeeded() {
			status.Fetched++
		}

		result := o.unifier.Ingest(ctx, adapter, outcome)
		switch result.Status {
		case domain.MergeInserted:
			status.Inserted++
			logger.Debug("Inserted %s (%s, %d bytes)",
				result.Record.GlobalID, result.Record.ContentType, result.Record.ContentLength)
		case domain.MergeDuplicate:
			status.Duplicates++
			logger.Debug("Duplicate content for %s (first seen as %s)",
				outcome.Item.Ref, result.Record.GlobalID)
		case domain.MergeRejected:
			status.Failures++
			logger.Debug("Rejected %s: %v", outcome.Item.Ref, result.Reason)
		}
	}
}

// CollectAll runs collection for all configured sources.
func (o *CollectOrchestrator) CollectAll(ctx context.Context, opts driving.CollectOptions) error {
	sources, err := o.sourceStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if _, err := o.Collect(ctx, source.ID, opts); err != nil {
			logger.Warn("Collect failed for %s: %v", source.ID, err)
			errs = append(errs, fmt.Errorf("collect %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Status returns collect progress for a source.
func (o *CollectOrchestrator) Status(_ context.Context, sourceID string) (*driving.CollectStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeRuns[sourceID]; ok {
		return o.snapshot(status), nil
	}

	// Not running - return idle status
	return &driving.CollectStatus{
		SourceID: sourceID,
		Running:  false,
	}, nil
}

// snapshot copies a status to avoid handing out shared mutable state.
func (o *CollectOrchestrator) snapshot(status *driving.CollectStatus) *driving.CollectStatus {
	copied := *status
	return &copied
}

// setStatus registers an active run. Returns false when one is already
// active for the source.
func (o *CollectOrchestrator) setStatus(sourceID string, status *driving.CollectStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.activeRuns[sourceID]; ok && existing.Running {
		return false
	}
	o.activeRuns[sourceID] = status
	return true
}

// clearStatus removes the active run for a source.
func (o *CollectOrchestrator) clearStatus(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeRuns, sourceID)
}
