package arweave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// TestParseConfig tests the content_type requirement
func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(domain.Source{
		Type: "arweave",
		Config: map[string]string{
			"content_type": "image/png",
			"app_name":     "ArDrive",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", cfg.ContentType)
	assert.Equal(t, "ArDrive", cfg.AppName)

	_, err = ParseConfig(domain.Source{Type: "arweave"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrMissingContentType)
}

// TestListCandidates tests GraphQL listing and cursor pagination
func TestListCandidates(t *testing.T) {
	var gotVariables map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotVariables = payload.Variables

		fmt.Fprint(w, `{
			"data": {"transactions": {
				"pageInfo": {"hasNextPage": true},
				"edges": [
					{"cursor": "cursor-1", "node": {
						"id": "tx-1",
						"data": {"size": "2048", "type": "image/png"},
						"tags": [{"name": "App-Name", "value": "ArDrive"},
						         {"name": "Content-Type", "value": "image/png"}],
						"block": {"height": 1300000, "timestamp": 1700000000}
					}},
					{"cursor": "cursor-2", "node": {
						"id": "tx-2",
						"data": {"size": "64", "type": "image/png"},
						"tags": [],
						"block": null
					}}
				]
			}}
		}`)
	}))
	defer server.Close()

	adapter := New("arweave-main", &Config{ContentType: "image/png"})
	adapter.graphqlURL = server.URL

	items, next, err := adapter.ListCandidates(context.Background(), "prev-cursor")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "cursor-2", next)
	assert.Equal(t, "prev-cursor", gotVariables["after"])

	first := items[0]
	assert.Equal(t, "tx-1", first.Ref)
	assert.Equal(t, "image/png", first.ContentType)
	assert.Equal(t, int64(2048), first.DeclaredSize)
	assert.Equal(t, int64(1300000), first.Metadata["block_height"])
	assert.Equal(t, "ArDrive", first.Metadata["app_name"])

	// Unconfirmed transactions carry no block metadata.
	assert.NotContains(t, items[1].Metadata, "block_height")
}

// TestListCandidates_LastPage tests hasNextPage=false ends the listing
func TestListCandidates_LastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": {"transactions": {
			"pageInfo": {"hasNextPage": false},
			"edges": [{"cursor": "c", "node": {"id": "tx-1", "data": {"size": "5", "type": "text/plain"}, "tags": []}}]
		}}}`)
	}))
	defer server.Close()

	adapter := New("arweave-main", &Config{ContentType: "text/plain"})
	adapter.graphqlURL = server.URL

	items, next, err := adapter.ListCandidates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Empty(t, next)
}

// TestListCandidates_GraphQLError tests index-level errors surface
func TestListCandidates_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "query too deep"}]}`)
	}))
	defer server.Close()

	adapter := New("arweave-main", &Config{ContentType: "image/png"})
	adapter.graphqlURL = server.URL

	_, _, err := adapter.ListCandidates(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query too deep")
}

// TestFetchContent tests gateway URL construction and fallback shape
func TestFetchContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx-1", r.URL.Path)
		w.Write([]byte("permaweb-bytes"))
	}))
	defer server.Close()

	adapter := New("arweave-main", &Config{ContentType: "image/png"})

	content, err := adapter.FetchContent(context.Background(),
		domain.CandidateItem{Ref: "tx-1"}, server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("permaweb-bytes"), content)
}

// TestAdapterDeclarations tests the static characteristics
func TestAdapterDeclarations(t *testing.T) {
	adapter := New("arweave-main", &Config{ContentType: "image/png"})

	assert.Equal(t, "arweave", adapter.Type())
	assert.False(t, adapter.Info().EndpointScopedLimit)
	assert.Equal(t, []string{GatewayPrimary, GatewayArIO}, adapter.Endpoints())
	assert.NoError(t, adapter.Validate(context.Background()))
}
