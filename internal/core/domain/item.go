package domain

// CandidateItem is a listed-but-not-yet-fetched reference to content.
// It is produced by a source adapter's listing call, consumed exactly
// once by the fetch scheduler, and never mutated.
type CandidateItem struct {
	// SourceID links to the Source that listed this item.
	SourceID string

	// Ref is the opaque source-specific identifier (inscription ID,
	// transaction ID, asset address, file path).
	Ref string

	// ContentType is the content type the source declared for this item.
	// May be empty when the source does not declare one.
	ContentType string

	// DeclaredSize is the size in bytes the source declared, or 0 when
	// unknown. Used only for the oversized-skip check before fetching.
	DeclaredSize int64

	// Ordinal is an optional source sequence number (inscription number,
	// block height). Zero when the source has no such notion.
	Ordinal int64

	// FetchURI overrides the endpoint-relative fetch path when the
	// content lives at an absolute location (e.g. Solana off-chain URIs).
	FetchURI string

	// Metadata contains listing-time key-value pairs the adapter wants
	// carried through to the canonical record mapping.
	Metadata map[string]any
}

// FetchOutcome is the terminal result of attempting to fetch one
// candidate. Exactly one outcome is emitted per admitted item; it is
// never mutated after emission.
type FetchOutcome struct {
	// Item is the candidate this outcome belongs to.
	Item CandidateItem

	// Content is the fetched bytes. Nil unless the fetch succeeded.
	Content []byte

	// EndpointUsed is the endpoint that served the content, or the last
	// endpoint attempted on failure.
	EndpointUsed string

	// Attempts is the total number of fetch attempts across all
	// endpoints, including retries.
	Attempts int

	// Err is the final error for a failed fetch. Nil on success.
	Err error
}

// Succeeded reports whether the fetch produced content.
func (o *FetchOutcome) Succeeded() bool {
	return o.Err == nil && len(o.Content) > 0
}
