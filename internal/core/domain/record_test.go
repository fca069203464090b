package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGlobalID tests deterministic global ID derivation
func TestGlobalID(t *testing.T) {
	id1 := GlobalID("ordinals-main", "abc123i0")
	id2 := GlobalID("ordinals-main", "abc123i0")
	id3 := GlobalID("arweave-main", "abc123i0")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, GlobalIDLength)
}

// TestHashContent tests digest stability and distinctness
func TestHashContent(t *testing.T) {
	x := []byte("payload-x")
	y := []byte("payload-y")

	assert.Equal(t, HashContent(x), HashContent(x))
	assert.NotEqual(t, HashContent(x), HashContent(y))
	assert.Len(t, HashContent(x), 64)
}

// TestMergeStatus_String tests status labels
func TestMergeStatus_String(t *testing.T) {
	assert.Equal(t, "inserted", MergeInserted.String())
	assert.Equal(t, "duplicate", MergeDuplicate.String())
	assert.Equal(t, "rejected", MergeRejected.String())
	assert.Equal(t, "unknown", MergeStatus(99).String())
}
