// Package memory provides in-memory implementations of the driven
// storage ports. Used by tests and as a fallback when no data
// directory is configured.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.CanonicalRecord
	byHash  map[string]string // content hash -> global ID
	ordered []string          // insertion order of global IDs
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		byID:   make(map[string]domain.CanonicalRecord),
		byHash: make(map[string]string),
	}
}

// Save inserts a record.
func (s *RecordStore) Save(_ context.Context, record *domain.CanonicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[record.GlobalID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.byHash[record.ContentHash]; ok {
		return domain.ErrAlreadyExists
	}

	s.byID[record.GlobalID] = *record
	s.byHash[record.ContentHash] = record.GlobalID
	s.ordered = append(s.ordered, record.GlobalID)
	return nil
}

// Replace overwrites the record holding the same content hash.
func (s *RecordStore) Replace(_ context.Context, record *domain.CanonicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldID, ok := s.byHash[record.ContentHash]
	if !ok {
		return domain.ErrNotFound
	}

	if oldID != record.GlobalID {
		delete(s.byID, oldID)
		for i, id := range s.ordered {
			if id == oldID {
				s.ordered[i] = record.GlobalID
				break
			}
		}
	}
	s.byID[record.GlobalID] = *record
	s.byHash[record.ContentHash] = record.GlobalID
	return nil
}

// Get retrieves a record by global ID.
func (s *RecordStore) Get(_ context.Context, globalID string) (*domain.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[globalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// List returns all records in insertion order.
func (s *RecordStore) List(_ context.Context) ([]domain.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.CanonicalRecord, 0, len(s.ordered))
	for _, id := range s.ordered {
		records = append(records, s.byID[id])
	}
	return records, nil
}

// ListBySource returns records first seen via one source.
func (s *RecordStore) ListBySource(_ context.Context, sourceID string) ([]domain.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.CanonicalRecord
	for _, id := range s.ordered {
		if rec := s.byID[id]; rec.SourceID == sourceID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Count returns the number of records.
func (s *RecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
