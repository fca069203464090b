package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.Reporter = (*ReportService)(nil)

// ReportService computes summary statistics over the canonical record
// set. It is a read-only consumer: the snapshot it iterates is whatever
// the record store returns at call time.
type ReportService struct {
	records driven.RecordStore
}

// NewReportService creates a new report service.
func NewReportService(records driven.RecordStore) *ReportService {
	return &ReportService{records: records}
}

// Summary builds counts, byte totals and per-category/source/type
// breakdowns from the current record set.
func (s *ReportService) Summary(ctx context.Context) (*driving.Report, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	report := &driving.Report{
		Records:         len(records),
		ByCategory:      make(map[string]int),
		BytesByCategory: make(map[string]int64),
		BySource:        make(map[string]int),
		ByContentType:   make(map[string]int),
	}

	for i := range records {
		rec := &records[i]
		category := domain.CategoryForType(rec.ContentType)

		report.TotalBytes += rec.ContentLength
		report.ByCategory[category]++
		report.BytesByCategory[category] += rec.ContentLength
		report.BySource[rec.SourceID]++
		if rec.ContentType != "" {
			report.ByContentType[rec.ContentType]++
		}
	}

	return report, nil
}
