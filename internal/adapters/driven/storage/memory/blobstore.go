package memory

import (
	"context"
	"path"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore.
// It tracks how many writes actually happened, which tests use to
// verify dedup behaviour.
type BlobStore struct {
	mu     sync.Mutex
	blobs  map[string]domain.ContentBlob
	writes int

	// FailWith, when set, makes every Put fail. Simulates a disk
	// problem in tests.
	FailWith error
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[string]domain.ContentBlob),
	}
}

// Put records content under its digest, once.
func (s *BlobStore) Put(_ context.Context, content []byte, contentType string, _ int64) (domain.ContentBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return domain.ContentBlob{}, s.FailWith
	}

	hash := domain.HashContent(content)
	if existing, ok := s.blobs[hash]; ok {
		return existing, nil
	}

	category := domain.CategoryForType(contentType)
	blob := domain.ContentBlob{
		Hash:      hash,
		SizeBytes: int64(len(content)),
		Path:      path.Join(category, hash[:16]+"."+domain.ExtensionForType(contentType)),
		Category:  category,
	}
	s.blobs[hash] = blob
	s.writes++
	return blob, nil
}

// Stat returns the blob for a digest.
func (s *BlobStore) Stat(_ context.Context, hash string) (domain.ContentBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[hash]
	if !ok {
		return domain.ContentBlob{}, domain.ErrNotFound
	}
	return blob, nil
}

// Seed registers an already-persisted blob.
func (s *BlobStore) Seed(blob domain.ContentBlob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[blob.Hash]; !ok {
		s.blobs[blob.Hash] = blob
	}
}

// Writes returns how many distinct payloads have been written.
func (s *BlobStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
