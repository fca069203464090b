package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

func testRecord(id, hash, sourceID string) *domain.CanonicalRecord {
	return &domain.CanonicalRecord{
		GlobalID:    id,
		SourceID:    sourceID,
		ItemRef:     "ref-" + id,
		ContentType: "image/png",
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
}

// TestRecordStore_SaveAndGet tests basic persistence
func TestRecordStore_SaveAndGet(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("r1", "h1", "src-a")))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.ContentHash)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestRecordStore_DuplicateHash tests digest uniqueness enforcement
func TestRecordStore_DuplicateHash(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("r1", "h1", "src-a")))

	err := store.Save(ctx, testRecord("r2", "h1", "src-b"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = store.Save(ctx, testRecord("r1", "h2", "src-a"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestRecordStore_Replace tests hash-keyed replacement
func TestRecordStore_Replace(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("r1", "h1", "src-a")))

	richer := testRecord("r2", "h1", "src-b")
	richer.Fields = map[string]any{"collection": "punks", "name": "one"}
	require.NoError(t, store.Replace(ctx, richer))

	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "src-b", got.SourceID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = store.Replace(ctx, testRecord("r3", "unknown-hash", "src-c"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestRecordStore_ListBySource tests source filtering
func TestRecordStore_ListBySource(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("r1", "h1", "src-a")))
	require.NoError(t, store.Save(ctx, testRecord("r2", "h2", "src-b")))
	require.NoError(t, store.Save(ctx, testRecord("r3", "h3", "src-a")))

	records, err := store.ListBySource(ctx, "src-a")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].GlobalID, "insertion order preserved")
}
