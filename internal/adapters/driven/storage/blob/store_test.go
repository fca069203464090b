package blob

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// TestStore_Put tests basic storage and blob fields
func TestStore_Put(t *testing.T) {
	store := newTestStore(t)
	content := []byte("hello inscription")

	blob, err := store.Put(context.Background(), content, "image/png", 712345)
	require.NoError(t, err)

	assert.Equal(t, domain.HashContent(content), blob.Hash)
	assert.Equal(t, int64(len(content)), blob.SizeBytes)
	assert.Equal(t, "image", blob.Category)
	assert.Equal(t, filepath.Join("image", blob.Hash[:digestPrefixLen]+"_712345.png"), blob.Path)

	written, err := os.ReadFile(filepath.Join(store.Root(), blob.Path))
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

// TestStore_PutDeduplicates tests identical bytes are written once
func TestStore_PutDeduplicates(t *testing.T) {
	store := newTestStore(t)
	content := []byte("same payload")

	first, err := store.Put(context.Background(), content, "image/png", 1)
	require.NoError(t, err)

	info1, err := os.Stat(filepath.Join(store.Root(), first.Path))
	require.NoError(t, err)

	// Second put, even with a different ordinal, returns the first blob.
	second, err := store.Put(context.Background(), content, "image/png", 2)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Path, second.Path)

	// Destination file untouched by the second put.
	info2, err := os.Stat(filepath.Join(store.Root(), first.Path))
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())

	// Exactly one file in the category directory.
	entries, err := os.ReadDir(filepath.Join(store.Root(), "image"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestStore_PutUnknownType tests the "other" category fallback
func TestStore_PutUnknownType(t *testing.T) {
	store := newTestStore(t)

	blob, err := store.Put(context.Background(), []byte("mystery"), "", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryOther, blob.Category)
	assert.Equal(t, ".bin", filepath.Ext(blob.Path))
}

// TestStore_PutConcurrent tests racing writers of identical bytes
func TestStore_PutConcurrent(t *testing.T) {
	store := newTestStore(t)
	content := []byte("raced payload")

	var wg sync.WaitGroup
	blobs := make([]domain.ContentBlob, 8)
	for i := range blobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			blob, err := store.Put(context.Background(), content, "text/plain", 0)
			require.NoError(t, err)
			blobs[i] = blob
		}()
	}
	wg.Wait()

	for _, blob := range blobs {
		assert.Equal(t, blobs[0].Path, blob.Path)
	}

	entries, err := os.ReadDir(filepath.Join(store.Root(), "text"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "racing writers must not leave extra files")
}

// TestStore_Stat tests digest lookup
func TestStore_Stat(t *testing.T) {
	store := newTestStore(t)
	content := []byte("stat me")

	blob, err := store.Put(context.Background(), content, "text/plain", 0)
	require.NoError(t, err)

	found, err := store.Stat(context.Background(), blob.Hash)
	require.NoError(t, err)
	assert.Equal(t, blob, found)

	_, err = store.Stat(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestStore_Seed tests adoption of prior-run blobs
func TestStore_Seed(t *testing.T) {
	store := newTestStore(t)
	content := []byte("from a previous run")
	hash := domain.HashContent(content)

	store.Seed(domain.ContentBlob{
		Hash:      hash,
		SizeBytes: int64(len(content)),
		Path:      "text/original.txt",
		Category:  "text",
	})

	// Put of the same content adopts the seeded path without writing.
	blob, err := store.Put(context.Background(), content, "text/plain", 0)
	require.NoError(t, err)
	assert.Equal(t, "text/original.txt", blob.Path)

	_, statErr := os.Stat(filepath.Join(store.Root(), "text"))
	assert.True(t, os.IsNotExist(statErr), "no file should be written for seeded content")
}

// TestStore_NoPartialFiles tests temp files never linger in the
// destination directory after successful puts
func TestStore_NoPartialFiles(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Put(context.Background(), []byte("a"), "text/plain", 0)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), []byte("b"), "text/plain", 0)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(store.Root(), "text"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".put-", "temp file left behind")
	}
	assert.Len(t, entries, 2)
}
