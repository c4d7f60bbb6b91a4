// Package classify provides swappable sector and complexity classification
// for ingested tenders. These heuristics enrich records for display and
// filtering; nothing load-bearing depends on their exact thresholds.
package classify

import (
	"strings"

	"github.com/jonathan/tender-matcher/internal/types"
)

// SectorClassifier assigns a sector label to a tender.
type SectorClassifier interface {
	Sector(t *types.TenderRecord) string
}

// ComplexityScorer estimates a [0,1] complexity score for a tender.
type ComplexityScorer interface {
	Score(t *types.TenderRecord) float64
}

// cpvSectors maps CPV code prefixes onto sector labels.
var cpvSectors = []struct {
	prefix string
	sector string
}{
	{"45", "Construction"},
	{"48", "IT/Software"},
	{"33", "Healthcare"},
	{"31", "Energy"},
}

// keywordSectors maps description keywords onto sector labels, checked in
// order when no CPV prefix matches.
var keywordSectors = []struct {
	keywords []string
	sector   string
}{
	{[]string{"energy", "renewable"}, "Energy"},
	{[]string{"construction", "building"}, "Construction"},
	{[]string{"software", "digital"}, "IT/Software"},
}

// CPVClassifier determines the sector from CPV code prefixes, falling back
// to description keywords.
type CPVClassifier struct{}

// Sector returns a sector label, "General" when nothing matches.
func (CPVClassifier) Sector(t *types.TenderRecord) string {
	for _, m := range cpvSectors {
		for _, code := range t.Categories {
			if strings.HasPrefix(code, m.prefix) {
				return m.sector
			}
		}
	}

	description := strings.ToLower(t.Description)
	for _, m := range keywordSectors {
		for _, kw := range m.keywords {
			if strings.Contains(description, kw) {
				return m.sector
			}
		}
	}

	return "General"
}

// HeuristicScorer scores complexity from estimated value, description
// length, and CPV code count, capped at 1.0.
type HeuristicScorer struct{}

// Score returns the complexity estimate for a tender.
func (HeuristicScorer) Score(t *types.TenderRecord) float64 {
	score := 0.0

	if t.EstimatedValue != nil {
		switch {
		case *t.EstimatedValue > 10_000_000:
			score += 0.4
		case *t.EstimatedValue > 1_000_000:
			score += 0.2
		}
	}

	switch descLen := len(t.Description); {
	case descLen > 1000:
		score += 0.3
	case descLen > 500:
		score += 0.2
	}

	switch cpvCount := len(t.Categories); {
	case cpvCount > 3:
		score += 0.3
	case cpvCount > 1:
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
