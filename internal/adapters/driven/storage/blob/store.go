// Package blob implements the content-addressed file store.
//
// Blobs are partitioned by content category and named by digest, so a
// payload is written at most once no matter how many sources produce
// it. Writes are atomic: bytes go to a temp file in the destination
// directory and are renamed into place, so a failed write never leaves
// a partial file visible under the final path.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// digestPrefixLen is the number of digest hex characters used in
// filenames. Enough to be collision-resistant within a category while
// keeping names short.
const digestPrefixLen = 16

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store is a filesystem-backed content-addressed blob store.
//
// The digest index is shared by all workers and guarded by one mutex;
// the check-then-write inside Put is atomic with respect to concurrent
// writers of the same digest.
type Store struct {
	mu    sync.Mutex
	root  string
	index map[string]domain.ContentBlob
}

// NewStore creates a blob store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", dir, err)
	}
	return &Store{
		root:  dir,
		index: make(map[string]domain.ContentBlob),
	}, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores content exactly once per unique payload. The first writer
// wins; subsequent calls with identical bytes return the existing blob
// without touching the filesystem.
func (s *Store) Put(ctx context.Context, content []byte, contentType string, ordinal int64) (domain.ContentBlob, error) {
	if err := ctx.Err(); err != nil {
		return domain.ContentBlob{}, err
	}

	hash := domain.HashContent(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.index[hash]; ok {
		return existing, nil
	}

	category := domain.CategoryForType(contentType)
	relPath := filepath.Join(category, filename(hash, ordinal, contentType))
	blob := domain.ContentBlob{
		Hash:      hash,
		SizeBytes: int64(len(content)),
		Path:      relPath,
		Category:  category,
	}

	absPath := filepath.Join(s.root, relPath)

	// A prior run may already have written this blob; adopt it.
	if info, err := os.Stat(absPath); err == nil && info.Size() == blob.SizeBytes {
		s.index[hash] = blob
		return blob, nil
	}

	if err := writeAtomic(absPath, content); err != nil {
		return domain.ContentBlob{}, fmt.Errorf("write blob %s: %w", relPath, err)
	}

	s.index[hash] = blob
	return blob, nil
}

// Stat returns the blob for a digest, or domain.ErrNotFound.
func (s *Store) Stat(_ context.Context, hash string) (domain.ContentBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.index[hash]
	if !ok {
		return domain.ContentBlob{}, domain.ErrNotFound
	}
	return blob, nil
}

// Seed registers an already-persisted blob in the digest index without
// touching the filesystem. Called when prior state is reloaded, so
// re-ingested content adopts the original blob instead of writing a
// second file.
func (s *Store) Seed(blob domain.ContentBlob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[blob.Hash]; !ok {
		s.index[blob.Hash] = blob
	}
}

// filename builds the stable blob filename from digest prefix, the
// optional source ordinal, and the extension for the content type.
func filename(hash string, ordinal int64, contentType string) string {
	name := hash[:digestPrefixLen]
	if ordinal > 0 {
		name += "_" + strconv.FormatInt(ordinal, 10)
	}
	return name + "." + domain.ExtensionForType(contentType)
}

// writeAtomic writes content to path via a temp file in the same
// directory followed by a rename. The temp file is removed on any
// failure.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}
