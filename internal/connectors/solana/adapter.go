// Package solana adapts Solana NFT content through the Helius DAS
// (Digital Asset Standard) JSON-RPC API. Listing pages through
// getAssetsByGroup/searchAssets; content lives off-chain behind each
// asset's file URI, so the fetch goes to that URI rather than to an
// adapter endpoint.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/connectors/transport"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

const (
	// RPCBase is the Helius mainnet RPC host.
	RPCBase = "https://mainnet.helius-rpc.com"

	// RequestsPerMinute keeps well inside the Helius free tier.
	RequestsPerMinute = 300

	// DefaultPageSize is the DAS page size.
	DefaultPageSize = 100

	// Gateways for URI schemes that need resolving.
	ipfsGateway    = "https://ipfs.io/ipfs/"
	arweaveGateway = "https://arweave.net/"
)

// Solana-specific errors.
var (
	// ErrMissingAPIKey indicates no Helius API key was configured.
	ErrMissingAPIKey = errors.New("solana: api_key is required")

	// ErrInvalidCursor indicates the cursor is not a decimal page number.
	ErrInvalidCursor = errors.New("solana: invalid cursor format")

	// ErrRPC indicates a JSON-RPC level error response.
	ErrRPC = errors.New("solana: rpc error")
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Config holds the parsed configuration for a solana source.
type Config struct {
	// APIKey is the Helius API key. Required.
	APIKey string

	// Collection optionally restricts listing to one on-chain
	// collection address via getAssetsByGroup.
	Collection string
}

// ParseConfig parses a source's config map into a Config struct.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		APIKey:     source.Config["api_key"],
		Collection: source.Config["collection"],
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, ErrMissingAPIKey)
	}
	return cfg, nil
}

// Adapter fetches Solana NFT content via the Helius DAS API.
type Adapter struct {
	sourceID string
	config   *Config
	client   *transport.Client

	// rpcURL is overridable in tests.
	rpcURL string
}

// New creates a new solana adapter.
func New(sourceID string, cfg *Config) *Adapter {
	return &Adapter{
		sourceID: sourceID,
		config:   cfg,
		client:   transport.NewClient(0),
		rpcURL:   RPCBase + "/?api-key=" + cfg.APIKey,
	}
}

// Type returns the adapter type identifier.
func (a *Adapter) Type() string {
	return "solana"
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

// Endpoints returns the single logical endpoint. Off-chain content
// URIs vary per asset, so there is no mirror fallback to declare.
func (a *Adapter) Endpoints() []string {
	return []string{RPCBase}
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
	if a.config.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result *dasResult `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dasResult struct {
	Total int        `json:"total"`
	Items []dasAsset `json:"items"`
}

type dasAsset struct {
	ID      string `json:"id"`
	Content struct {
		JSONURI string `json:"json_uri"`
		Files   []struct {
			URI  string `json:"uri"`
			Mime string `json:"mime"`
		} `json:"files"`
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
	} `json:"content"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
	Compression struct {
		Compressed bool `json:"compressed"`
	} `json:"compression"`
}

// ListCandidates fetches one DAS page. The cursor is the decimal
// 1-based page number.
func (a *Adapter) ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error) {
	page, err := parsePage(cursor)
	if err != nil {
		return nil, "", err
	}

	method := "searchAssets"
	params := map[string]any{
		"page":      page,
		"limit":     DefaultPageSize,
		"tokenType": "nonFungible",
	}
	if a.config.Collection != "" {
		method = "getAssetsByGroup"
		params = map[string]any{
			"groupKey":   "collection",
			"groupValue": a.config.Collection,
			"page":       page,
			"limit":      DefaultPageSize,
		}
	}

	var resp rpcResponse
	err = a.client.PostJSON(ctx, a.rpcURL,
		rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}, &resp)
	if err != nil {
		return nil, "", fmt.Errorf("listing assets page %d: %w", page, err)
	}
	if resp.Error != nil {
		return nil, "", fmt.Errorf("%w: %d %s", ErrRPC, resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, "", fmt.Errorf("%w: empty result", ErrRPC)
	}

	items := make([]domain.CandidateItem, 0, len(resp.Result.Items))
	for _, asset := range resp.Result.Items {
		candidate, ok := a.candidateFromAsset(asset)
		if !ok {
			// Assets without a resolvable content URI cannot be fetched.
			continue
		}
		items = append(items, candidate)
	}

	next := ""
	if len(resp.Result.Items) == DefaultPageSize {
		next = strconv.Itoa(page + 1)
	}
	return items, next, nil
}

// candidateFromAsset maps a DAS asset to a candidate item. Returns
// false when the asset carries no usable content URI.
func (a *Adapter) candidateFromAsset(asset dasAsset) (domain.CandidateItem, bool) {
	uri := asset.Content.JSONURI
	contentType := "application/json"
	if len(asset.Content.Files) > 0 && asset.Content.Files[0].URI != "" {
		uri = asset.Content.Files[0].URI
		contentType = asset.Content.Files[0].Mime
	}
	if uri == "" {
		return domain.CandidateItem{}, false
	}

	metadata := map[string]any{
		"name":       asset.Content.Metadata.Name,
		"compressed": asset.Compression.Compressed,
	}
	for _, group := range asset.Grouping {
		if group.GroupKey == "collection" {
			metadata["collection"] = group.GroupValue
		}
	}

	return domain.CandidateItem{
		SourceID:    a.sourceID,
		Ref:         asset.ID,
		ContentType: contentType,
		FetchURI:    resolveURI(uri),
		Metadata:    metadata,
	}, true
}

// FetchContent retrieves the asset's off-chain content. The endpoint
// argument is ignored: the fetch location is per-asset.
func (a *Adapter) FetchContent(ctx context.Context, item domain.CandidateItem, _ string) ([]byte, error) {
	if item.FetchURI == "" {
		return nil, fmt.Errorf("asset %s has no content uri", item.Ref)
	}
	return a.client.GetBytes(ctx, item.FetchURI)
}

// MapFields extracts asset metadata for the canonical record.
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

// resolveURI rewrites ipfs:// and ar:// schemes to public gateways.
func resolveURI(uri string) string {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		return ipfsGateway + strings.TrimPrefix(uri, "ipfs://")
	case strings.HasPrefix(uri, "ar://"):
		return arweaveGateway + strings.TrimPrefix(uri, "ar://")
	default:
		return uri
	}
}

// parsePage decodes the page cursor. Empty means the first page.
func parsePage(cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return page, nil
}
