// Package file provides TOML-file-backed configuration storage.
// Sources are kept in sources.toml inside the harvest config
// directory and edited by hand or via the sources commands.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// sourceEntry is the TOML shape of one configured source.
type sourceEntry struct {
	ID        string            `toml:"id"`
	Type      string            `toml:"type"`
	Name      string            `toml:"name"`
	Config    map[string]string `toml:"config,omitempty"`
	CreatedAt time.Time         `toml:"created_at,omitempty"`
}

// sourcesFile is the TOML document root.
type sourcesFile struct {
	Sources []sourceEntry `toml:"sources"`
}

// SourceStore is a TOML-file implementation of driven.SourceStore.
type SourceStore struct {
	mu       sync.RWMutex
	filePath string
	entries  []sourceEntry
}

// NewSourceStore creates a TOML-backed source store.
// If configDir is empty, defaults to ~/.harvest.
func NewSourceStore(configDir string) (*SourceStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".harvest")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &SourceStore{
		filePath: filepath.Join(configDir, "sources.toml"),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a source by ID.
func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			source := entry.toDomain()
			return &source, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all configured sources in file order.
func (s *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]domain.Source, 0, len(s.entries))
	for _, entry := range s.entries {
		sources = append(sources, entry.toDomain())
	}
	return sources, nil
}

// Save stores or updates a source and writes the file.
func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	if source.ID == "" || source.Type == "" {
		return fmt.Errorf("%w: source needs id and type", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := sourceEntry{
		ID:        source.ID,
		Type:      source.Type,
		Name:      source.Name,
		Config:    source.Config,
		CreatedAt: source.CreatedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	replaced := false
	for i := range s.entries {
		if s.entries[i].ID == source.ID {
			entry.CreatedAt = s.entries[i].CreatedAt
			s.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.entries = append(s.entries, entry)
	}

	return s.flush()
}

// Delete removes a source and writes the file.
func (s *SourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.flush()
		}
	}
	return domain.ErrNotFound
}

// Path returns the backing file path.
func (s *SourceStore) Path() string {
	return s.filePath
}

// load reads sources.toml into memory.
func (s *SourceStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var doc sourcesFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.entries = doc.Sources
	return nil
}

// flush writes the in-memory entries back to disk. Caller holds s.mu.
func (s *SourceStore) flush() error {
	data, err := toml.Marshal(sourcesFile{Sources: s.entries})
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	return nil
}

// toDomain converts a TOML entry to the domain type.
func (e sourceEntry) toDomain() domain.Source {
	return domain.Source{
		ID:        e.ID,
		Type:      e.Type,
		Name:      e.Name,
		Config:    e.Config,
		CreatedAt: e.CreatedAt,
	}
}
