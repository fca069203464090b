package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Unifier maps fetch outcomes into canonical records and guarantees the
// global no-duplicate-content invariant: no two records in the unified
// store share a content hash, regardless of source.
//
// One Unifier instance exists per run. The digest index is shared by
// all workers of all sources and guarded by a single mutex; the
// critical section is an O(1) map lookup/insert.
type Unifier struct {
	blobs   driven.BlobStore
	records driven.RecordStore
	policy  domain.DedupPolicy

	mu      sync.Mutex
	byHash  map[string]*domain.CanonicalRecord
	now     func() time.Time
}

// NewUnifier creates a unification engine over the given stores.
func NewUnifier(blobs driven.BlobStore, records driven.RecordStore, policy domain.DedupPolicy) *Unifier {
	return &Unifier{
		blobs:   blobs,
		records: records,
		policy:  policy,
		byHash:  make(map[string]*domain.CanonicalRecord),
		now:     time.Now,
	}
}

// Rebuild loads the persisted record set and rebuilds the digest index,
// making a re-run over overlapping candidate sets idempotent. Must be
// called before the first Ingest of a run.
func (u *Unifier) Rebuild(ctx context.Context) error {
	existing, err := u.records.List(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.byHash = make(map[string]*domain.CanonicalRecord, len(existing))
	for i := range existing {
		rec := existing[i]
		u.byHash[rec.ContentHash] = &rec
		u.blobs.Seed(domain.ContentBlob{
			Hash:      rec.ContentHash,
			SizeBytes: rec.ContentLength,
			Path:      rec.StoragePath,
			Category:  domain.CategoryForType(rec.ContentType),
		})
	}

	logger.Debug("Rebuilt digest index: %d records", len(existing))
	return nil
}

// Ingest merges one fetch outcome into the unified store.
//
// Failed fetches are rejected without creating a record. Otherwise the
// content is stored (exactly once per unique payload), the digest is
// looked up in the index, and the outcome is inserted or reported as a
// duplicate according to the dedup policy.
func (u *Unifier) Ingest(ctx context.Context, adapter driven.SourceAdapter, outcome domain.FetchOutcome) domain.MergeResult {
	if !outcome.Succeeded() {
		err := outcome.Err
		if err == nil {
			err = domain.ErrEmptyContent
		}
		return domain.MergeResult{
			Status: domain.MergeRejected,
			Reason: fmt.Errorf("fetch failed: %w", err),
		}
	}

	blob, err := u.blobs.Put(ctx, outcome.Content, outcome.Item.ContentType, outcome.Item.Ordinal)
	if err != nil {
		// A local-environment problem, not a fetch problem. Logged
		// distinctly so operators can tell the two apart.
		logger.Warn("Blob store write failed for %s: %v", outcome.Item.Ref, err)
		return domain.MergeResult{
			Status: domain.MergeRejected,
			Reason: fmt.Errorf("%w: %w", domain.ErrStorageFailed, err),
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if existing, ok := u.byHash[blob.Hash]; ok {
		return u.resolveDuplicate(ctx, adapter, outcome.Item, blob, existing)
	}

	record := u.synthesize(adapter, outcome.Item, blob)
	if err := u.records.Save(ctx, record); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Another run already persisted this digest; adopt it.
			if prior, getErr := u.records.Get(ctx, record.GlobalID); getErr == nil {
				u.byHash[prior.ContentHash] = prior
				return domain.MergeResult{Status: domain.MergeDuplicate, Record: prior}
			}
		}
		return domain.MergeResult{
			Status: domain.MergeRejected,
			Reason: fmt.Errorf("%w: %w", domain.ErrStorageFailed, err),
		}
	}

	u.byHash[blob.Hash] = record
	return domain.MergeResult{Status: domain.MergeInserted, Record: record}
}

// resolveDuplicate applies the dedup policy to a digest collision.
// Caller holds u.mu.
func (u *Unifier) resolveDuplicate(
	ctx context.Context,
	adapter driven.SourceAdapter,
	item domain.CandidateItem,
	blob domain.ContentBlob,
	existing *domain.CanonicalRecord,
) domain.MergeResult {
	if u.policy == domain.DedupRichestMetadata {
		fields := adapter.MapFields(item, blob)
		if len(fields) > len(existing.Fields) {
			richer := u.synthesize(adapter, item, blob)
			richer.CreatedAt = existing.CreatedAt
			if err := u.records.Replace(ctx, richer); err != nil {
				logger.Warn("Replace for richer metadata failed, keeping first-seen: %v", err)
				return domain.MergeResult{Status: domain.MergeDuplicate, Record: existing}
			}
			u.byHash[blob.Hash] = richer
			logger.Debug("Replaced %s with richer record from %s", existing.GlobalID, item.SourceID)
			return domain.MergeResult{Status: domain.MergeDuplicate, Record: richer}
		}
	}

	// First-seen wins: the existing record is never mutated, even when
	// the newcomer declares richer metadata.
	return domain.MergeResult{Status: domain.MergeDuplicate, Record: existing}
}

// synthesize builds a canonical record for an item/blob pair.
func (u *Unifier) synthesize(adapter driven.SourceAdapter, item domain.CandidateItem, blob domain.ContentBlob) *domain.CanonicalRecord {
	return &domain.CanonicalRecord{
		GlobalID:      domain.GlobalID(item.SourceID, item.Ref),
		SourceID:      item.SourceID,
		ItemRef:       item.Ref,
		ContentType:   item.ContentType,
		ContentHash:   blob.Hash,
		ContentLength: blob.SizeBytes,
		StoragePath:   blob.Path,
		Fields:        adapter.MapFields(item, blob),
		CreatedAt:     u.now(),
	}
}

// Size returns the number of indexed digests.
func (u *Unifier) Size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byHash)
}
