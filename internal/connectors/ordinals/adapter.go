// Package ordinals adapts the Bitcoin Ordinals inscription APIs.
// Listing goes through the Hiro API; content is served by three
// mirrors tried in fallback order. The mirrors run independent
// infrastructure, so the rate limit is scoped per endpoint rather
// than per source.
package ordinals

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/connectors/transport"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Content mirrors in fallback priority order. Hiro is the most
// reliable free tier; ordinals.com and Ordiscan serve the same
// payloads when Hiro is down or throttled.
const (
	EndpointHiro        = "https://api.hiro.so/ordinals/v1"
	EndpointOrdinalsCom = "https://ordinals.com"
	EndpointOrdiscan    = "https://api.ordiscan.com/v1"

	// RequestsPerMinute is the Hiro free-tier quota.
	RequestsPerMinute = 60
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter fetches inscription content from the Ordinals APIs.
type Adapter struct {
	sourceID string
	config   *Config
	client   *transport.Client

	// listBase is overridable in tests; defaults to EndpointHiro.
	listBase string
	content  map[string]string
}

// New creates a new ordinals adapter.
func New(sourceID string, cfg *Config) *Adapter {
	return &Adapter{
		sourceID: sourceID,
		config:   cfg,
		client:   transport.NewClient(0),
		listBase: EndpointHiro,
		content: map[string]string{
			EndpointHiro:        EndpointHiro + "/inscriptions/%s/content",
			EndpointOrdinalsCom: EndpointOrdinalsCom + "/content/%s",
			EndpointOrdiscan:    EndpointOrdiscan + "/inscription/%s/content",
		},
	}
}

// Type returns the adapter type identifier.
func (a *Adapter) Type() string {
	return "ordinals"
}

// SourceID returns the configured source ID.
func (a *Adapter) SourceID() string {
	return a.sourceID
}

// Info returns static characteristics of this adapter.
func (a *Adapter) Info() driven.AdapterInfo {
	return driven.AdapterInfo{
		// Each mirror has its own quota: a fallback fetch against
		// ordinals.com does not spend Hiro budget.
		EndpointScopedLimit: true,
		RequiresNetwork:     true,
	}
}

// Endpoints returns content endpoints in fallback priority order.
func (a *Adapter) Endpoints() []string {
	return []string{EndpointHiro, EndpointOrdinalsCom, EndpointOrdiscan}
}

// RateLimit returns the per-endpoint admission policy.
func (a *Adapter) RateLimit() domain.RateLimitPolicy {
	return domain.RateLimitPolicy{
		MaxRequests: RequestsPerMinute,
		Window:      time.Minute,
	}
}

// Validate checks the adapter configuration.
func (a *Adapter) Validate(_ context.Context) error {
	if a.config.PageSize <= 0 || a.config.PageSize > MaxPageSize {
		return fmt.Errorf("page size %d out of range", a.config.PageSize)
	}
	return nil
}

// listResponse is the Hiro inscription listing payload.
type listResponse struct {
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	Total   int           `json:"total"`
	Results []inscription `json:"results"`
}

// inscription is one entry of the Hiro listing.
type inscription struct {
	ID               string `json:"id"`
	Number           int64  `json:"number"`
	MimeType         string `json:"mime_type"`
	ContentLength    int64  `json:"content_length"`
	GenesisHeight    int64  `json:"genesis_block_height"`
	GenesisTimestamp int64  `json:"genesis_timestamp"`
	SatRarity        string `json:"sat_rarity"`
}

// ListCandidates fetches one page of inscriptions from the Hiro API.
// The cursor is the decimal listing offset.
func (a *Adapter) ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error) {
	offset, err := parseOffset(cursor)
	if err != nil {
		return nil, "", err
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if a.config.MimeType != "" {
		query.Set("mime_type", a.config.MimeType)
	}

	var resp listResponse
	if err := a.client.GetJSON(ctx, a.listBase+"/inscriptions?"+query.Encode(), &resp); err != nil {
		return nil, "", fmt.Errorf("listing inscriptions at offset %d: %w", offset, err)
	}

	items := make([]domain.CandidateItem, 0, len(resp.Results))
	for _, ins := range resp.Results {
		items = append(items, domain.CandidateItem{
			SourceID:     a.sourceID,
			Ref:          ins.ID,
			ContentType:  ins.MimeType,
			DeclaredSize: ins.ContentLength,
			Ordinal:      ins.Number,
			Metadata: map[string]any{
				"genesis_height":    ins.GenesisHeight,
				"genesis_timestamp": ins.GenesisTimestamp,
				"sat_rarity":        ins.SatRarity,
			},
		})
	}

	next := ""
	if len(resp.Results) > 0 && offset+len(resp.Results) < resp.Total {
		next = strconv.Itoa(offset + len(resp.Results))
	}
	return items, next, nil
}

// FetchContent retrieves raw inscription content from one mirror.
func (a *Adapter) FetchContent(ctx context.Context, item domain.CandidateItem, endpoint string) ([]byte, error) {
	pattern, ok := a.content[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	return a.client.GetBytes(ctx, fmt.Sprintf(pattern, item.Ref))
}

// MapFields extracts inscription metadata for the canonical record.
func (a *Adapter) MapFields(item domain.CandidateItem, _ domain.ContentBlob) map[string]any {
	fields := map[string]any{
		"inscription_number": item.Ordinal,
	}
	for k, v := range item.Metadata {
		fields[k] = v
	}
	return fields
}

// Close releases resources.
func (a *Adapter) Close() error {
	return nil
}

// parseOffset decodes the listing cursor. Empty means the beginning.
func parseOffset(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return offset, nil
}
