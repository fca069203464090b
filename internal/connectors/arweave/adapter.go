// Package arweave adapts the Arweave permaweb. Listing runs GraphQL
// queries against the arweave.net gateway with a Content-Type tag
// filter; content is fetched from the gateways in fallback order.
package arweave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/connectors/transport"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Gateways in fallback priority order. All serve transaction data at
// /{txid}; only the primary hosts the GraphQL index.
const (
	GatewayPrimary = "https://arweave.net"
	GatewayArIO    = "https://ar-io.net"

	// RequestsPerMinute is a polite self-imposed cap; the gateways
	// publish no hard quota.
	RequestsPerMinute = 120

	// DefaultPageSize is the GraphQL page size.
	DefaultPageSize = 100
)

// ErrMissingContentType indicates no content_type filter was
// configured. The GraphQL index is far too large to list unfiltered.
var ErrMissingContentType = errors.New("arweave: content_type is required")

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Config holds the parsed configuration for an arweave source.
type Config struct {
	// ContentType is the Content-Type tag to filter on. Required.
	ContentType string

	// AppName optionally narrows the listing to one App-Name tag.
	AppName string
}

// ParseConfig parses a source's config map into a Config struct.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		ContentType: source.Config["content_type"],
		AppName:     source.Config["app_name"],
	}
	if cfg.ContentType == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, ErrMissingContentType)
	}
	return cfg, nil
}

// Adapter fetches permaweb transactions from Arweave gateways.
type Adapter struct {
	sourceID string
	config   *Config
	client   *transport.Client

	// graphqlURL is overridable in tests.
	graphqlURL string
	gateways   []string
}

// New creates a new arweave adapter.
func New(sourceID string, cfg *Config) *Adapter {
	return &Adapter{
		sourceID:   sourceID,
		config:     cfg,
		client:     transport.NewClient(0),
		graphqlURL: GatewayPrimary + "/graphql",
		gateways:   []string{GatewayPrimary, GatewayArIO},
	}
}

// Type returns the adapter type identifier.
func (a *Adapter) Type() string {
	return "arweave"
}

// SourceID returns the configured source ID.
func (a *Adapter) SourceID() string {
	return a.sourceID
}

// Info returns static characteristics of this adapter.
func (a *Adapter) Info() driven.AdapterInfo {
	return driven.AdapterInfo{
		RequiresNetwork: true,
	}
}

// Endpoints returns the gateways in fallback priority order.
func (a *Adapter) Endpoints() []string {
	return a.gateways
}

// RateLimit returns the per-source admission policy.
func (a *Adapter) RateLimit() domain.RateLimitPolicy {
	return domain.RateLimitPolicy{
		MaxRequests: RequestsPerMinute,
		Window:      time.Minute,
	}
}

// Validate checks the adapter configuration.
func (a *Adapter) Validate(_ context.Context) error {
	if a.config.ContentType == "" {
		return ErrMissingContentType
	}
	return nil
}

// listQuery is the transaction listing query. Tag filters and the
// after-cursor are passed as variables.
const listQuery = `
query($tags: [TagFilter!], $first: Int!, $after: String) {
  transactions(tags: $tags, first: $first, after: $after) {
    pageInfo { hasNextPage }
    edges {
      cursor
      node {
        id
        data { size type }
        tags { name value }
        block { height timestamp }
      }
    }
  }
}`

type graphqlResponse struct {
	Data struct {
		Transactions struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Edges []struct {
				Cursor string `json:"cursor"`
				Node   txNode `json:"node"`
			} `json:"edges"`
		} `json:"transactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type txNode struct {
	ID   string `json:"id"`
	Data struct {
		Size int64  `json:"size,string"`
		Type string `json:"type"`
	} `json:"data"`
	Tags []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"tags"`
	Block *struct {
		Height    int64 `json:"height"`
		Timestamp int64 `json:"timestamp"`
	} `json:"block"`
}

// ListCandidates fetches one page of transactions via GraphQL. The
// cursor is the opaque GraphQL edge cursor.
func (a *Adapter) ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error) {
	tags := []map[string]any{
		{"name": "Content-Type", "values": []string{a.config.ContentType}},
	}
	if a.config.AppName != "" {
		tags = append(tags, map[string]any{
			"name": "App-Name", "values": []string{a.config.AppName},
		})
	}

	variables := map[string]any{
		"tags":  tags,
		"first": DefaultPageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	var resp graphqlResponse
	err := a.client.PostJSON(ctx, a.graphqlURL,
		map[string]any{"query": listQuery, "variables": variables}, &resp)
	if err != nil {
		return nil, "", fmt.Errorf("listing transactions: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, "", fmt.Errorf("listing transactions: graphql: %s", resp.Errors[0].Message)
	}

	edges := resp.Data.Transactions.Edges
	items := make([]domain.CandidateItem, 0, len(edges))
	last := ""
	for _, edge := range edges {
		items = append(items, candidateFromNode(a.sourceID, edge.Node))
		last = edge.Cursor
	}

	next := ""
	if resp.Data.Transactions.PageInfo.HasNextPage && last != "" {
		next = last
	}
	return items, next, nil
}

// candidateFromNode maps one GraphQL node to a candidate item.
func candidateFromNode(sourceID string, node txNode) domain.CandidateItem {
	metadata := map[string]any{}
	if node.Block != nil {
		metadata["block_height"] = node.Block.Height
		metadata["block_timestamp"] = node.Block.Timestamp
	}
	for _, tag := range node.Tags {
		if tag.Name == "App-Name" {
			metadata["app_name"] = tag.Value
		}
	}

	return domain.CandidateItem{
		SourceID:     sourceID,
		Ref:          node.ID,
		ContentType:  node.Data.Type,
		DeclaredSize: node.Data.Size,
		Metadata:     metadata,
	}
}

// FetchContent retrieves transaction data from one gateway.
func (a *Adapter) FetchContent(ctx context.Context, item domain.CandidateItem, endpoint string) ([]byte, error) {
	return a.client.GetBytes(ctx, endpoint+"/"+item.Ref)
}

// MapFields extracts transaction metadata for the canonical record.
func (a *Adapter) MapFields(item domain.CandidateItem, _ domain.ContentBlob) map[string]any {
	fields := make(map[string]any, len(item.Metadata))
	for k, v := range item.Metadata {
		fields[k] = v
	}
	return fields
}

// Close releases resources.
func (a *Adapter) Close() error {
	return nil
}
