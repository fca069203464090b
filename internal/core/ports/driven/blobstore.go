package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// BlobStore persists retrieved bytes exactly once per unique payload.
//
// Put is safe for concurrent use. Two callers racing to store identical
// bytes must both receive the same blob; the loser discards its own
// write and adopts the winner's path. A failed write never leaves a
// partial file visible under the final path.
type BlobStore interface {
	// Put stores content under a deterministic path derived from the
	// digest, the content type's category and extension, and an
	// optional source ordinal. If the digest is already stored the
	// existing blob is returned without rewriting.
	Put(ctx context.Context, content []byte, contentType string, ordinal int64) (domain.ContentBlob, error)

	// Stat returns the blob for a digest, or domain.ErrNotFound.
	Stat(ctx context.Context, hash string) (domain.ContentBlob, error)

	// Seed registers an already-persisted blob in the store's digest
	// index without touching the filesystem. Called when prior state
	// is reloaded so re-ingested content adopts the original blob.
	Seed(blob domain.ContentBlob)
}
