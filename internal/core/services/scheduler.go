package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
	"github.com/custodia-labs/harvest-cli/internal/ratelimit"
)

// FetchScheduler turns a bounded list of candidates for one source into
// fetch outcomes under the source's rate limit, trying endpoints in
// declared fallback order and retrying transient failures.
//
// The scheduler owns the only internal concurrency in the system: a
// bounded pool of workers consuming a work queue, with outcomes
// delivered over a completion channel to a single consumer.
type FetchScheduler struct {
	adapter driven.SourceAdapter
	policy  domain.FetchPolicy

	// One limiter per source, or one per endpoint when the adapter
	// declares endpoint-scoped limits. Created per run, never shared
	// across sources.
	sourceLimiter    *ratelimit.Limiter
	endpointLimiters map[string]*ratelimit.Limiter

	// Pool-wide politeness pacer, independent of the window limiter.
	pacer *rate.Limiter

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetchScheduler creates a scheduler for one source's run.
func NewFetchScheduler(adapter driven.SourceAdapter, policy domain.FetchPolicy) *FetchScheduler {
	policy = policy.Normalised()

	s := &FetchScheduler{
		adapter: adapter,
		policy:  policy,
		sleep:   sleepCtx,
	}

	if adapter.Info().EndpointScopedLimit {
		s.endpointLimiters = make(map[string]*ratelimit.Limiter)
		for _, ep := range adapter.Endpoints() {
			s.endpointLimiters[ep] = ratelimit.New(adapter.RateLimit())
		}
	} else {
		s.sourceLimiter = ratelimit.New(adapter.RateLimit())
	}

	if policy.PaceRPS > 0 {
		s.pacer = rate.NewLimiter(rate.Limit(policy.PaceRPS), 1)
	}

	return s
}

// Admit waits for one listing-call admission against the source's
// primary quota. Listing always charges the first endpoint's limiter.
func (s *FetchScheduler) Admit(ctx context.Context) error {
	return s.admit(ctx, s.primaryEndpoint())
}

// Run fetches every candidate and sends exactly one FetchOutcome per
// admitted item on the returned channel. Items not yet started when the
// policy deadline elapses are abandoned without an outcome; in-flight
// fetches are allowed to finish. The channel closes when all workers
// have drained.
func (s *FetchScheduler) Run(ctx context.Context, items []domain.CandidateItem) <-chan domain.FetchOutcome {
	work := make(chan domain.CandidateItem)
	outcomes := make(chan domain.FetchOutcome, s.policy.Workers)

	var wg sync.WaitGroup
	for range s.policy.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				outcomes <- s.fetchOne(ctx, item)
			}
		}()
	}

	go func() {
		defer close(work)
		for i, item := range items {
			if s.deadlineReached() {
				logger.Info("Deadline reached: abandoning %d unstarted items", len(items)-i)
				return
			}
			select {
			case <-ctx.Done():
				return
			case work <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}

// fetchOne drives one item through the retry/fallback state machine:
// Pending -> Attempting(endpoint, attempt) -> Succeeded | Exhausted.
func (s *FetchScheduler) fetchOne(ctx context.Context, item domain.CandidateItem) domain.FetchOutcome {
	outcome := domain.FetchOutcome{Item: item}

	// Oversized items are skipped before any network call.
	if s.policy.MaxContentBytes > 0 && item.DeclaredSize > s.policy.MaxContentBytes {
		outcome.Err = fmt.Errorf("%w: declared %d bytes, ceiling %d",
			domain.ErrTooLarge, item.DeclaredSize, s.policy.MaxContentBytes)
		return outcome
	}

	var lastErr error

	for _, endpoint := range s.adapter.Endpoints() {
		content, attempts, err := s.attemptEndpoint(ctx, item, endpoint)
		outcome.Attempts += attempts
		outcome.EndpointUsed = endpoint

		if err == nil {
			outcome.Content = content
			return outcome
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		logger.Debug("Endpoint %s failed for %s: %v", endpoint, item.Ref, err)
	}

	outcome.Err = fmt.Errorf("%w: %s: %w", domain.ErrAllEndpointsFailed, item.Ref, lastErr)
	return outcome
}

// attemptEndpoint tries one endpoint up to MaxAttempts times, backing
// off between transient failures. Permanent failures fall through to
// the caller immediately.
func (s *FetchScheduler) attemptEndpoint(
	ctx context.Context,
	item domain.CandidateItem,
	endpoint string,
) ([]byte, int, error) {
	delay := s.policy.RetryDelay
	attempts := 0

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if err := s.admit(ctx, endpoint); err != nil {
			return nil, attempts, err
		}
		attempts++

		content, err := s.adapter.FetchContent(ctx, item, endpoint)
		if err == nil {
			if len(content) == 0 {
				return nil, attempts, domain.ErrEmptyContent
			}
			return content, attempts, nil
		}

		if !domain.IsRetryable(err) {
			return nil, attempts, err
		}
		if attempt == s.policy.MaxAttempts {
			return nil, attempts, err
		}

		logger.Debug("Transient failure for %s on %s (attempt %d/%d): %v",
			item.Ref, endpoint, attempt, s.policy.MaxAttempts, err)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return nil, attempts, sleepErr
		}
		delay *= 2
	}

	return nil, attempts, domain.ErrAllEndpointsFailed
}

// admit blocks until the pacer and the relevant window limiter both
// allow one more call against endpoint.
func (s *FetchScheduler) admit(ctx context.Context, endpoint string) error {
	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
	}
	if s.endpointLimiters != nil {
		if l, ok := s.endpointLimiters[endpoint]; ok {
			return l.Wait(ctx)
		}
		return nil
	}
	return s.sourceLimiter.Wait(ctx)
}

func (s *FetchScheduler) primaryEndpoint() string {
	eps := s.adapter.Endpoints()
	if len(eps) == 0 {
		return ""
	}
	return eps[0]
}

func (s *FetchScheduler) deadlineReached() bool {
	return !s.policy.Deadline.IsZero() && time.Now().After(s.policy.Deadline)
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

