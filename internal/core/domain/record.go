package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// GlobalIDLength is the number of hex characters in a global record ID.
const GlobalIDLength = 32

// CanonicalRecord is the unified, source-agnostic metadata entry for one
// uniquely-content-identified item. Records are deduplicated across all
// sources by ContentHash alone: identical bytes are identical content
// regardless of origin.
type CanonicalRecord struct {
	// GlobalID is derived deterministically from SourceID and ItemRef.
	GlobalID string

	// SourceID is the source that first produced this content.
	SourceID string

	// ItemRef is the source-specific identifier of the first-seen item.
	ItemRef string

	// ContentType is the canonical content type for the blob.
	ContentType string

	// ContentHash is the hex-encoded SHA-256 digest of the content.
	// Unique across the whole unified store.
	ContentHash string

	// ContentLength is the blob size in bytes.
	ContentLength int64

	// StoragePath is the blob's storage-relative path.
	StoragePath string

	// Fields holds source-specific metadata (inscription number, block
	// height, collection name, ...). The engine stores these opaquely.
	Fields map[string]any

	// CreatedAt is when the record was first inserted.
	CreatedAt time.Time
}

// GlobalID derives the deterministic record identifier for a source/item
// pair: the first GlobalIDLength hex characters of sha256(sourceID+itemRef).
func GlobalID(sourceID, itemRef string) string {
	sum := sha256.Sum256([]byte(sourceID + itemRef))
	return hex.EncodeToString(sum[:])[:GlobalIDLength]
}

// HashContent returns the hex-encoded SHA-256 digest of raw bytes.
// This digest is the dedup key for the whole unified store.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// MergeStatus is the outcome class of ingesting one fetch outcome.
type MergeStatus int

const (
	// MergeInserted indicates a new canonical record was created.
	MergeInserted MergeStatus = iota

	// MergeDuplicate indicates the content already exists; no record
	// was created or mutated.
	MergeDuplicate

	// MergeRejected indicates the outcome could not be ingested
	// (failed fetch, storage failure).
	MergeRejected
)

// String returns a short label for logging and reports.
func (s MergeStatus) String() string {
	switch s {
	case MergeInserted:
		return "inserted"
	case MergeDuplicate:
		return "duplicate"
	case MergeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MergeResult reports what the unification engine did with one outcome.
type MergeResult struct {
	// Status classifies the result.
	Status MergeStatus

	// Record is the inserted record (MergeInserted) or the existing
	// first-seen record (MergeDuplicate). Nil for MergeRejected.
	Record *CanonicalRecord

	// Reason carries the rejection cause for MergeRejected.
	Reason error
}

// DedupPolicy selects how the engine resolves a digest collision between
// two records from a run (or across runs).
type DedupPolicy int

const (
	// DedupFirstSeen keeps the first-seen record in full. Later
	// duplicates never override its metadata. This is the default and
	// makes the final record set sensitive to processing order in the
	// documented, accepted way.
	DedupFirstSeen DedupPolicy = iota

	// DedupRichestMetadata replaces the kept record's identity and
	// fields when a later duplicate declares strictly more
	// source-specific fields. CreatedAt and the content identity are
	// preserved from the first insertion.
	DedupRichestMetadata
)
