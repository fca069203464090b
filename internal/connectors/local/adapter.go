// Package local imports content from a local directory tree, for
// bringing previously downloaded datasets under the unified store.
// Listing walks the tree; watching pushes items for files that appear
// while a watch is active.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

const (
	// EndpointLocal is the single logical endpoint identifier.
	EndpointLocal = "local"

	// DefaultPageSize is how many files one listing page carries.
	DefaultPageSize = 500

	fallbackContentType = "application/octet-stream"
)

// Local-specific errors.
var (
	// ErrMissingPath indicates no path was configured.
	ErrMissingPath = errors.New("local: path is required")

	// ErrNotADirectory indicates the configured path is not a directory.
	ErrNotADirectory = errors.New("local: path is not a directory")

	// ErrInvalidCursor indicates the cursor is not a decimal offset.
	ErrInvalidCursor = errors.New("local: invalid cursor format")
)

// Ensure Adapter implements both the adapter and watcher interfaces.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.Watcher       = (*Adapter)(nil)
)

// Config holds the parsed configuration for a local source.
type Config struct {
	// Path is the directory to import. Required.
	Path string
}

// ParseConfig parses a source's config map into a Config struct.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{Path: source.Config["path"]}
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, ErrMissingPath)
	}
	return cfg, nil
}

// Adapter imports files from a directory tree.
type Adapter struct {
	sourceID string
	root     string
}

// New creates a new local adapter.
func New(sourceID string, cfg *Config) *Adapter {
	return &Adapter{
		sourceID: sourceID,
		root:     filepath.Clean(cfg.Path),
	}
}

// Type returns the adapter type identifier.
func (a *Adapter) Type() string {
	return "local"
}

// SourceID returns the configured source ID.
func (a *Adapter) SourceID() string {
	return a.sourceID
}

// Info returns static characteristics of this adapter.
func (a *Adapter) Info() driven.AdapterInfo {
	return driven.AdapterInfo{
		SupportsWatch: true,
	}
}

// Endpoints returns the single logical endpoint.
func (a *Adapter) Endpoints() []string {
	return []string{EndpointLocal}
}

// RateLimit reports an unlimited policy: disk reads need no quota.
func (a *Adapter) RateLimit() domain.RateLimitPolicy {
	return domain.RateLimitPolicy{}
}

// Validate checks the configured path is an existing directory.
func (a *Adapter) Validate(_ context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", a.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, a.root)
	}
	return nil
}

// ListCandidates walks the tree and returns one page of files in
// sorted path order. The cursor is the decimal offset into that order.
func (a *Adapter) ListCandidates(ctx context.Context, cursor string) ([]domain.CandidateItem, string, error) {
	offset, err := parseOffset(cursor)
	if err != nil {
		return nil, "", err
	}

	paths, err := a.walk(ctx)
	if err != nil {
		return nil, "", err
	}
	if offset >= len(paths) {
		return nil, "", nil
	}

	end := offset + DefaultPageSize
	if end > len(paths) {
		end = len(paths)
	}

	items := make([]domain.CandidateItem, 0, end-offset)
	for _, rel := range paths[offset:end] {
		item, err := a.candidate(rel)
		if err != nil {
			// File vanished between walk and stat; skip it.
			continue
		}
		items = append(items, item)
	}

	next := ""
	if end < len(paths) {
		next = strconv.Itoa(end)
	}
	return items, next, nil
}

// walk collects all regular file paths under the root, relative and
// sorted for a stable listing order.
func (a *Adapter) walk(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", a.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// candidate builds a candidate item for one relative path.
func (a *Adapter) candidate(rel string) (domain.CandidateItem, error) {
	info, err := os.Stat(filepath.Join(a.root, rel))
	if err != nil {
		return domain.CandidateItem{}, err
	}
	return domain.CandidateItem{
		SourceID:     a.sourceID,
		Ref:          filepath.ToSlash(rel),
		ContentType:  contentTypeFor(rel),
		DeclaredSize: info.Size(),
		Metadata: map[string]any{
			"mod_time": info.ModTime().UTC().Format(time.RFC3339),
		},
	}, nil
}

// FetchContent reads the file from disk.
func (a *Adapter) FetchContent(_ context.Context, item domain.CandidateItem, _ string) ([]byte, error) {
	full := filepath.Join(a.root, filepath.FromSlash(item.Ref))
	// Refs come from our own walk, but reject traversal anyway.
	if !strings.HasPrefix(full, a.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s escapes the import root", domain.ErrInvalidInput, item.Ref)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, item.Ref)
		}
		return nil, err
	}
	return content, nil
}

// MapFields extracts file metadata for the canonical record.
func (a *Adapter) MapFields(item domain.CandidateItem, _ domain.ContentBlob) map[string]any {
	fields := map[string]any{
		"path": item.Ref,
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

// contentTypeFor guesses a MIME type from the file extension.
func contentTypeFor(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return fallbackContentType
	}
	// Strip charset parameters so categories stay stable.
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
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
