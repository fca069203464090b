package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCategoryForType tests partition derivation from content types
func TestCategoryForType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
	}{
		{"png image", "image/png", "image"},
		{"svg with parameters", "image/svg+xml; charset=utf-8", "image"},
		{"plain text", "text/plain", "text"},
		{"json", "application/json", "application"},
		{"video", "video/mp4", "video"},
		{"audio", "audio/mpeg", "audio"},
		{"gltf model", "model/gltf-binary", "model"},
		{"empty", "", CategoryOther},
		{"whitespace only", "   ", CategoryOther},
		{"no slash", "png", CategoryOther},
		{"unknown top level", "chemical/x-pdb", CategoryOther},
		{"mixed case", "IMAGE/PNG", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForType(tt.contentType))
		})
	}
}

// TestCategoryForType_Deterministic tests repeated derivation is stable
func TestCategoryForType_Deterministic(t *testing.T) {
	for range 3 {
		assert.Equal(t, "image", CategoryForType("image/webp"))
	}
}

// TestExtensionForType tests extension derivation
func TestExtensionForType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/svg+xml", "svg"},
		{"text/html; charset=utf-8", "html"},
		{"application/json", "json"},
		{"video/webm", "webm"},
		{"", "bin"},
		{"application/octet-stream", "bin"},
		{"audio/ogg", "ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionForType(tt.contentType))
		})
	}
}
