package driving

import "context"

// Report summarises the unified record set.
type Report struct {
	// Records is the total number of canonical records.
	Records int

	// TotalBytes is the sum of all blob sizes.
	TotalBytes int64

	// ByCategory counts records per content category.
	ByCategory map[string]int

	// BytesByCategory sums blob sizes per content category.
	BytesByCategory map[string]int64

	// BySource counts records per first-seen source.
	BySource map[string]int

	// ByContentType counts records per full content type.
	ByContentType map[string]int
}

// Reporter computes summary statistics over a stable snapshot of the
// canonical record set.
type Reporter interface {
	// Summary builds a report from the current record set.
	Summary(ctx context.Context) (*Report, error)
}
