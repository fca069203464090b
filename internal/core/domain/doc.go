// Package domain defines the core business entities for Harvest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CandidateItem: A listed-but-not-yet-fetched reference to content
//   - FetchOutcome: The terminal result of fetching one candidate
//   - ContentBlob: A content-addressed blob persisted on disk
//   - CanonicalRecord: The unified, source-agnostic entry for one item
//   - Source: A configured content source
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
