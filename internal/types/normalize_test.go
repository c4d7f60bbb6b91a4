package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *time.Time
	}{
		{"Empty string", "", nil},
		{"Garbage", "not-a-date", nil},
		{"RFC3339", "2026-03-15T10:30:00Z", timePtr(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC))},
		{"No zone", "2026-03-15T10:30:00", timePtr(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC))},
		{"Space separator", "2026-03-15 10:30:00", timePtr(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC))},
		{"Date only", "2026-03-15", timePtr(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))},
		{"Partial date", "2026-03", nil},
		{"Surrounding whitespace", "  2026-03-15  ", timePtr(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseTimestamp(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result, "malformed timestamps should yield nil, not an error")
				return
			}
			require.NotNil(t, result)
			assert.True(t, tt.expected.Equal(*result))
		})
	}
}

func TestNormalizeTender(t *testing.T) {
	raw := map[string]any{
		"id":              "TED-123",
		"title":           "  Road resurfacing works  ",
		"description":     "Resurfacing of 12km of municipal roads",
		"organization":    "City of Example",
		"location":        "DE21",
		"category":        []any{"45233141", "45233142"},
		"estimated_value": float64(2500000),
		"currency":        "EUR",
		"deadline":        "2026-09-01",
		"source":          "EU TED",
	}

	tender := NormalizeTender(raw)

	assert.Equal(t, "TED-123", tender.ID)
	assert.Equal(t, "Road resurfacing works", tender.Title)
	assert.Equal(t, []string{"45233141", "45233142"}, tender.Categories)
	require.NotNil(t, tender.EstimatedValue)
	assert.Equal(t, 2500000.0, *tender.EstimatedValue)
	require.NotNil(t, tender.Deadline)
	assert.Equal(t, 2026, tender.Deadline.Year())
	assert.Nil(t, tender.PublicationDate)
}

func TestNormalizeTenderTolerantInput(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, tender *TenderRecord)
	}{
		{
			name: "Missing fields default to zero values",
			raw:  map[string]any{"title": "Minimal"},
			check: func(t *testing.T, tender *TenderRecord) {
				assert.Equal(t, "Minimal", tender.Title)
				assert.Empty(t, tender.Categories)
				assert.Nil(t, tender.EstimatedValue)
				assert.Nil(t, tender.Deadline)
			},
		},
		{
			name: "Malformed deadline is dropped",
			raw:  map[string]any{"title": "Bad deadline", "deadline": "soon"},
			check: func(t *testing.T, tender *TenderRecord) {
				assert.Nil(t, tender.Deadline)
			},
		},
		{
			name: "String estimated value is parsed",
			raw:  map[string]any{"title": "T", "estimated_value": "150000.5"},
			check: func(t *testing.T, tender *TenderRecord) {
				require.NotNil(t, tender.EstimatedValue)
				assert.Equal(t, 150000.5, *tender.EstimatedValue)
			},
		},
		{
			name: "Non-numeric estimated value is dropped",
			raw:  map[string]any{"title": "T", "estimated_value": "TBD"},
			check: func(t *testing.T, tender *TenderRecord) {
				assert.Nil(t, tender.EstimatedValue)
			},
		},
		{
			name: "cpv_codes used when category absent",
			raw:  map[string]any{"title": "T", "cpv_codes": []any{"48000000"}},
			check: func(t *testing.T, tender *TenderRecord) {
				assert.Equal(t, []string{"48000000"}, tender.Categories)
			},
		},
		{
			name: "Single string category becomes one-element slice",
			raw:  map[string]any{"title": "T", "category": "45000000"},
			check: func(t *testing.T, tender *TenderRecord) {
				assert.Equal(t, []string{"45000000"}, tender.Categories)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, NormalizeTender(tt.raw))
		})
	}
}

func TestNormalizeCompany(t *testing.T) {
	raw := map[string]any{
		"name":        "Acme Engineering GmbH",
		"description": "Civil engineering services",
		"industry":    []any{"Construction", "Infrastructure"},
		"services":    []any{"Road construction"},
		"size":        "medium",
		"founded_year": float64(2005),
		"past_projects": []any{
			map[string]any{"name": "A8 widening", "description": "Highway expansion"},
			"Municipal depot",
		},
	}

	company := NormalizeCompany(raw)

	assert.Equal(t, "Acme Engineering GmbH", company.Name)
	assert.Equal(t, SizeMedium, company.Size)
	require.NotNil(t, company.FoundedYear)
	assert.Equal(t, 2005, *company.FoundedYear)
	assert.Equal(t, []string{"A8 widening: Highway expansion", "Municipal depot"}, company.PastProjects)
}

func TestNormalizeSize(t *testing.T) {
	tests := []struct {
		input    string
		expected CompanySize
	}{
		{"Small", SizeSmall},
		{"small", SizeSmall},
		{"MEDIUM", SizeMedium},
		{"mid", SizeMedium},
		{"mid-size", SizeMedium},
		{"large", SizeLarge},
		{"enterprise", ""},
		{"", ""},
		{"  Large  ", SizeLarge},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSize(tt.input))
		})
	}
}

func timePtr(ts time.Time) *time.Time { return &ts }
