package ordinals

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

const (
	// DefaultPageSize matches the Hiro listing API's maximum page size.
	DefaultPageSize = 60

	// MaxPageSize is the hard ceiling the Hiro API enforces.
	MaxPageSize = 60
)

// Config holds the parsed configuration for an ordinals source.
type Config struct {
	// MimeType filters the listing to one content type (e.g.
	// "image/png"). Empty means all inscriptions.
	MimeType string

	// PageSize is the listing page size. Default: 60.
	PageSize int
}

// ParseConfig parses a source's config map into a Config struct.
// All fields are optional.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		PageSize: DefaultPageSize,
	}

	if mime, ok := source.Config["mime_type"]; ok {
		cfg.MimeType = mime
	}

	if raw, ok := source.Config["page_size"]; ok && raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > MaxPageSize {
			return nil, fmt.Errorf("%w: page_size must be 1-%d, got %q",
				domain.ErrInvalidConfig, MaxPageSize, raw)
		}
		cfg.PageSize = size
	}

	return cfg, nil
}
