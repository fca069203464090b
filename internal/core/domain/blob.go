package domain

import "strings"

// CategoryOther is the partition directory for content whose type is
// unknown or unrecognised.
const CategoryOther = "other"

// ContentBlob describes a content-addressed blob persisted on disk.
// For a given hash at most one blob exists; later writers of identical
// content receive the first writer's blob.
type ContentBlob struct {
	// Hash is the hex-encoded SHA-256 digest of the content.
	Hash string

	// SizeBytes is the content length in bytes.
	SizeBytes int64

	// Path is the storage-relative path of the blob file.
	Path string

	// Category is the partition directory derived from the content type.
	Category string
}

// CategoryForType derives the partition directory from a content type
// string. The top-level type token (the part before "/") becomes the
// category; unknown or absent types map to CategoryOther. Purely an
// organisational convention - no correctness depends on it beyond
// determinism.
func CategoryForType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return CategoryOther
	}
	// Strip parameters such as "; charset=utf-8".
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	top, _, found := strings.Cut(ct, "/")
	top = strings.ToLower(strings.TrimSpace(top))
	if !found || top == "" {
		return CategoryOther
	}
	switch top {
	case "image", "text", "application", "video", "audio", "model", "font":
		return top
	default:
		return CategoryOther
	}
}

// ExtensionForType derives a filename extension from a content type.
// Falls back to "bin" for unknown or absent types.
func ExtensionForType(contentType string) string {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch ct {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "image/avif":
		return "avif"
	case "text/plain":
		return "txt"
	case "text/html":
		return "html"
	case "text/markdown":
		return "md"
	case "application/json":
		return "json"
	case "application/pdf":
		return "pdf"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	case "audio/mpeg":
		return "mp3"
	case "model/gltf-binary":
		return "glb"
	}
	// Last resort: use the subtype token when it is a clean word.
	_, sub, found := strings.Cut(ct, "/")
	if found {
		sub = strings.TrimSpace(sub)
		if sub != "" && !strings.ContainsAny(sub, "+.;= ") && len(sub) <= 8 {
			return sub
		}
	}
	return "bin"
}
