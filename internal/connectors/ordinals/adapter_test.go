package ordinals

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// TestParseConfig tests config parsing and validation
func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(domain.Source{
		Type:   "ordinals",
		Config: map[string]string{"mime_type": "image/png", "page_size": "30"},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", cfg.MimeType)
	assert.Equal(t, 30, cfg.PageSize)

	// Defaults
	cfg, err = ParseConfig(domain.Source{Type: "ordinals"})
	require.NoError(t, err)
	assert.Empty(t, cfg.MimeType)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)

	// Out of range
	_, err = ParseConfig(domain.Source{
		Type:   "ordinals",
		Config: map[string]string{"page_size": "500"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

// TestListCandidates tests listing, cursor advance and field mapping
func TestListCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inscriptions", r.URL.Path)
		assert.Equal(t, "image/png", r.URL.Query().Get("mime_type"))

		offset := r.URL.Query().Get("offset")
		fmt.Fprintf(w, `{
			"limit": 2, "offset": %s, "total": 3,
			"results": [
				{"id": "abc123i0", "number": 7, "mime_type": "image/png",
				 "content_length": 512, "genesis_block_height": 800000,
				 "genesis_timestamp": 1700000000000, "sat_rarity": "common"},
				{"id": "def456i0", "number": 8, "mime_type": "image/png",
				 "content_length": 1024, "genesis_block_height": 800001,
				 "genesis_timestamp": 1700000600000, "sat_rarity": "uncommon"}
			]
		}`, offset)
	}))
	defer server.Close()

	adapter := New("ordinals-main", &Config{MimeType: "image/png", PageSize: 2})
	adapter.listBase = server.URL

	items, next, err := adapter.ListCandidates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2", next)

	first := items[0]
	assert.Equal(t, "ordinals-main", first.SourceID)
	assert.Equal(t, "abc123i0", first.Ref)
	assert.Equal(t, "image/png", first.ContentType)
	assert.Equal(t, int64(512), first.DeclaredSize)
	assert.Equal(t, int64(7), first.Ordinal)
	assert.Equal(t, int64(800000), first.Metadata["genesis_height"])
	assert.Equal(t, "common", first.Metadata["sat_rarity"])
}

// TestListCandidates_LastPage tests the end-of-list cursor
func TestListCandidates_LastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"limit": 60, "offset": 2, "total": 3,
			"results": [{"id": "ghi789i0", "number": 9, "mime_type": "text/plain", "content_length": 5}]}`)
	}))
	defer server.Close()

	adapter := New("ordinals-main", &Config{PageSize: 60})
	adapter.listBase = server.URL

	items, next, err := adapter.ListCandidates(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Empty(t, next)
}

// TestListCandidates_BadCursor tests malformed cursors are rejected
func TestListCandidates_BadCursor(t *testing.T) {
	adapter := New("ordinals-main", &Config{PageSize: 60})

	_, _, err := adapter.ListCandidates(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

// TestFetchContent tests mirror URL construction
func TestFetchContent(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	adapter := New("ordinals-main", &Config{PageSize: 60})
	adapter.content = map[string]string{
		"mirror": server.URL + "/content/%s",
	}

	content, err := adapter.FetchContent(context.Background(),
		domain.CandidateItem{Ref: "abc123i0"}, "mirror")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)
	assert.Equal(t, "/content/abc123i0", gotPath)

	_, err = adapter.FetchContent(context.Background(),
		domain.CandidateItem{Ref: "abc123i0"}, "https://unknown.example")
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

// TestAdapterDeclarations tests the static characteristics
func TestAdapterDeclarations(t *testing.T) {
	adapter := New("ordinals-main", &Config{PageSize: 60})

	assert.Equal(t, "ordinals", adapter.Type())
	assert.True(t, adapter.Info().EndpointScopedLimit)
	assert.True(t, adapter.Info().RequiresNetwork)
	assert.Equal(t, EndpointHiro, adapter.Endpoints()[0])
	assert.Equal(t, RequestsPerMinute, adapter.RateLimit().MaxRequests)
	assert.NoError(t, adapter.Validate(context.Background()))
}
