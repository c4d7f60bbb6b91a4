// Package tendersource supplies raw tender records from external tender
// databases. Records are unvalidated maps; normalization into typed records
// happens at ingestion.
package tendersource

import (
	"context"
	"time"
)

// RawTender is an unvalidated tender record as returned by a source.
type RawTender map[string]any

// SearchOptions narrow a tender search.
type SearchOptions struct {
	MaxResults   int
	CountryCodes []string
	CPVCodes     []string
	DaysBack     int
	Now          time.Time // zero means time.Now
}

// Source is the tender data collaborator: a crawler or API returning raw
// tender records for a query.
type Source interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]RawTender, error)
}
