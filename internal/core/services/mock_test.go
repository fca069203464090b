package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// mockAdapter is a hand-written SourceAdapter for service tests.
// Behaviour is injected per test through the function fields; unset
// fields fall back to benign defaults.
type mockAdapter struct {
	typeName string
	sourceID string
	info     driven.AdapterInfo
	eps      []string
	limit    domain.RateLimitPolicy

	validateErr error
	listFunc    func(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error)
	fetchFunc   func(ctx context.Context, item domain.CandidateItem, endpoint string) ([]byte, error)
	fieldsFunc  func(item domain.CandidateItem, blob domain.ContentBlob) map[string]any

	mu      sync.Mutex
	fetches []fetchCall
	closed  bool
}

type fetchCall struct {
	ref      string
	endpoint string
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{
		typeName: "mock",
		sourceID: "mock-source",
		eps:      []string{"primary"},
	}
}

func (m *mockAdapter) Type() string                     { return m.typeName }
func (m *mockAdapter) SourceID() string                 { return m.sourceID }
func (m *mockAdapter) Info() driven.AdapterInfo         { return m.info }
func (m *mockAdapter) Endpoints() []string              { return m.eps }
func (m *mockAdapter) RateLimit() domain.RateLimitPolicy { return m.limit }

func (m *mockAdapter) Validate(context.Context) error { return m.validateErr }

func (m *mockAdapter) ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error) {
	if m.listFunc == nil {
		return nil, "", nil
	}
	return m.listFunc(ctx, cursor)
}

func (m *mockAdapter) FetchContent(ctx context.Context, item domain.CandidateItem, endpoint string) ([]byte, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, fetchCall{ref: item.Ref, endpoint: endpoint})
	m.mu.Unlock()

	if m.fetchFunc == nil {
		return []byte("content:" + item.Ref), nil
	}
	return m.fetchFunc(ctx, item, endpoint)
}

func (m *mockAdapter) MapFields(item domain.CandidateItem, blob domain.ContentBlob) map[string]any {
	if m.fieldsFunc == nil {
		return map[string]any{"ref": item.Ref}
	}
	return m.fieldsFunc(item, blob)
}

func (m *mockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockAdapter) fetchCalls() []fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fetchCall(nil), m.fetches...)
}

// mockFactory hands out a fixed adapter per source type.
type mockFactory struct {
	adapters map[string]driven.SourceAdapter
}

func (f *mockFactory) Create(_ context.Context, source domain.Source) (driven.SourceAdapter, error) {
	adapter, ok := f.adapters[source.Type]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return adapter, nil
}

func item(sourceID, ref string) domain.CandidateItem {
	return domain.CandidateItem{
		SourceID:    sourceID,
		Ref:         ref,
		ContentType: "image/png",
	}
}
