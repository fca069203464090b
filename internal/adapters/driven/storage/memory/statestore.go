package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure CollectStateStore implements the interface.
var _ driven.CollectStateStore = (*CollectStateStore)(nil)

// CollectStateStore is an in-memory implementation of
// driven.CollectStateStore.
type CollectStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.CollectState
}

// NewCollectStateStore creates a new in-memory collect state store.
func NewCollectStateStore() *CollectStateStore {
	return &CollectStateStore{
		states: make(map[string]domain.CollectState),
	}
}

// Get retrieves the collect state for a source.
func (s *CollectStateStore) Get(_ context.Context, sourceID string) (*domain.CollectState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// Save stores or updates the collect state for a source.
func (s *CollectStateStore) Save(_ context.Context, state domain.CollectState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SourceID] = state
	return nil
}
